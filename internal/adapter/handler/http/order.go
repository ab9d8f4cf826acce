package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.OrderService
}

func NewOrderHandler(service port.OrderService, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type lineItemRequest struct {
	MenuID    int64   `json:"menuId"`
	MenuName  string  `json:"menuName"`
	Quantity  int32   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type placeOrderRequest struct {
	StoreID   int64             `json:"storeId"`
	CartItems []lineItemRequest `json:"cartItems"`
}

type lineItemResponse struct {
	MenuID     int64           `json:"menuId"`
	MenuName   string          `json:"menuName"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type orderResponse struct {
	ID            int64              `json:"orderId"`
	StoreID       int64              `json:"storeId"`
	LineItems     []lineItemResponse `json:"lineItems,omitempty"`
	TotalAmount   decimal.Decimal    `json:"totalAmount"`
	Status        string             `json:"status"`
	PaymentID     *int64             `json:"paymentId,omitempty"`
	FailureReason string             `json:"failureReason,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func newOrderResponse(order *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		StoreID:       order.StoreID,
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		PaymentID:     order.PaymentID,
		FailureReason: order.FailureReason,
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.LineItems {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			MenuID:     item.MenuID,
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return resp
}

// PlaceOrder accepts the cart and answers with the PENDING order right
// away; the terminal status is observed later through the query endpoints.
func (oh *OrderHandler) PlaceOrder(ctx *gin.Context) {
	userID := getUserID(ctx)

	req := placeOrderRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	items := make([]port.NewLineItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		price, err := decimal.NewFromFloat64(item.UnitPrice)
		if err != nil {
			oh.handleValidationError(ctx, err)
			return
		}
		items = append(items, port.NewLineItem{
			MenuID:    item.MenuID,
			MenuName:  item.MenuName,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	order, err := oh.service.PlaceOrder(ctx, userID, req.StoreID, items)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, newOrderResponse(order), http.StatusCreated)
}

func (oh *OrderHandler) ListOrdersByUser(ctx *gin.Context) {
	userID := getUserID(ctx)

	list, err := oh.service.ListOrdersByUser(ctx, userID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, newOrderResponse(o))
	}

	oh.handleSuccess(ctx, result)
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	userID := getUserID(ctx)

	orderID, err := strconv.ParseInt(ctx.Param("orderID"), 10, 64)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.GetOrder(ctx, orderID, userID)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, newOrderResponse(order))
}
