package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

// The edge gateway authenticates the caller and forwards the identity in
// X-User-Id; services behind it trust the header and never see tokens.
const userIDHeaderKey = "X-User-Id"
const userIDContextKey = "user_id"

func userIdentity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := ctx.Request.Header.Get(userIDHeaderKey)
		if userID == "" {
			handleAbort(ctx, domain.ErrMissingUserHeader)
			return
		}

		ctx.Set(userIDContextKey, userID)

		ctx.Next()
	}
}

func getUserID(ctx *gin.Context) string {
	return ctx.MustGet(userIDContextKey).(string)
}

func handleAbort(ctx *gin.Context, err error) {
	statusCode, ok := errorStatusMap[err]
	if !ok {
		statusCode = http.StatusInternalServerError
	}
	ctx.AbortWithError(statusCode, err)
}
