package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Handler
	service port.PaymentService
}

func NewPaymentHandler(service port.PaymentService, logger *zap.Logger) (*PaymentHandler, error) {
	return &PaymentHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type paymentResponse struct {
	PaymentID     int64           `json:"paymentId"`
	OrderID       int64           `json:"orderId"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	FailureReason string          `json:"failureReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (ph *PaymentHandler) GetPaymentByOrder(ctx *gin.Context) {
	orderID, err := strconv.ParseInt(ctx.Param("orderID"), 10, 64)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	payment, err := ph.service.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, paymentResponse{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		Status:        string(payment.Status),
		Amount:        payment.Amount,
		FailureReason: string(payment.FailureReason),
		CreatedAt:     payment.CreatedAt,
	})
}
