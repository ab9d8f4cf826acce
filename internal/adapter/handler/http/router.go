package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hetrkumt/localy-v1/internal/adapter/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	orderHandler *OrderHandler,
	accountHandler *AccountHandler,
	paymentHandler *PaymentHandler,
	metricsHandler http.Handler) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.Use(userIdentity())
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("", orderHandler.ListOrdersByUser)
			orders.GET("/:orderID", orderHandler.GetOrder)
		}

		accounts := api.Group("/accounts")
		{
			accounts.POST("/users", accountHandler.CreateUserAccount)
			accounts.POST("/stores", accountHandler.CreateStoreAccount)
			accounts.GET("/users/:userID/balance", accountHandler.UserBalance)
		}

		payments := api.Group("/payments")
		{
			payments.GET("/orders/:orderID", paymentHandler.GetPaymentByOrder)
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
