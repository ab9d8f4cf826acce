package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

type AccountHandler struct {
	Handler
	service port.AccountService
}

func NewAccountHandler(service port.AccountService, logger *zap.Logger) (*AccountHandler, error) {
	return &AccountHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type createUserAccountRequest struct {
	UserID         string  `json:"userId"`
	InitialBalance float64 `json:"initialBalance"`
}

type createStoreAccountRequest struct {
	StoreID        int64   `json:"storeId"`
	OwnerUserID    string  `json:"ownerUserId"`
	InitialBalance float64 `json:"initialBalance"`
}

type accountResponse struct {
	AccountID int64           `json:"accountId"`
	UserID    string          `json:"userId,omitempty"`
	StoreID   int64           `json:"storeId,omitempty"`
	Role      string          `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
}

func (ah *AccountHandler) CreateUserAccount(ctx *gin.Context) {
	req := createUserAccountRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	initial, err := decimal.NewFromFloat64(req.InitialBalance)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account, err := ah.service.CreateUserAccount(ctx, req.UserID, initial)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccessWithStatus(ctx, accountResponse{
		AccountID: account.ID,
		UserID:    account.UserID,
		Role:      string(account.Role),
		Balance:   account.Balance,
	}, http.StatusCreated)
}

func (ah *AccountHandler) CreateStoreAccount(ctx *gin.Context) {
	req := createStoreAccountRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	initial, err := decimal.NewFromFloat64(req.InitialBalance)
	if err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	account, err := ah.service.CreateStoreAccount(ctx, req.StoreID, req.OwnerUserID, initial)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccessWithStatus(ctx, accountResponse{
		AccountID: account.ID,
		UserID:    account.UserID,
		StoreID:   account.StoreID,
		Role:      string(account.Role),
		Balance:   account.Balance,
	}, http.StatusCreated)
}

func (ah *AccountHandler) UserBalance(ctx *gin.Context) {
	userID := ctx.Param("userID")

	account, err := ah.service.GetUserBalance(ctx, userID)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	ah.handleSuccess(ctx, accountResponse{
		AccountID: account.ID,
		UserID:    account.UserID,
		Role:      string(account.Role),
		Balance:   account.Balance,
	})
}
