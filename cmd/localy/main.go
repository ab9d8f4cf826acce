package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hetrkumt/localy-v1/internal/adapter/bus"
	"github.com/hetrkumt/localy-v1/internal/adapter/config"
	"github.com/hetrkumt/localy-v1/internal/adapter/handler/http"
	"github.com/hetrkumt/localy-v1/internal/adapter/logger"
	"github.com/hetrkumt/localy-v1/internal/adapter/metrics"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage/memory"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage/repository"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"github.com/hetrkumt/localy-v1/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var orderRepo port.OrderRepository
	var paymentRepo port.PaymentRepository
	var ledger port.Ledger

	if conf.App.Storage == config.StorageMemory {
		log.Info("Using in-memory storage")
		orderRepo = memory.NewOrderRepository()
		paymentRepo = memory.NewPaymentRepository()
		ledger = memory.NewLedger()
	} else {
		db, err := storage.NewDBStorage(ctx, conf.Database)
		if err != nil {
			log.Error("database error", zap.Error(err))
			return
		}
		err = db.RunMigrations()
		if err != nil {
			log.Error("database migration error", zap.Error(err))
			return
		}

		orderRepo, err = repository.NewOrderRepository(db)
		if err != nil {
			log.Error("order repo creating error", zap.Error(err))
			return
		}
		paymentRepo, err = repository.NewPaymentRepository(db)
		if err != nil {
			log.Error("payment repo creating error", zap.Error(err))
			return
		}
		ledger, err = repository.NewAccountRepository(db)
		if err != nil {
			log.Error("account repo creating error", zap.Error(err))
			return
		}
	}

	sagaMetrics := metrics.NewSagaMetrics()

	deadLetter := func(event domain.Event, attempts int, err error) {
		// Operator queue. CompensationFailed events land here; they mean
		// money is stuck and must never be retried automatically.
		log.Error("DEAD LETTER",
			zap.String("event", event.EventName()),
			zap.Int64("order", event.PartitionKey()),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}

	eventBus := bus.NewBus(conf.Saga.BusPartitions, conf.Saga.MaxAttempts,
		conf.Saga.RedeliveryDelay, deadLetter, sagaMetrics, log.Named("Bus"))

	paymentProcessor, err := service.NewPaymentProcessor(paymentRepo, ledger,
		eventBus, sagaMetrics, log.Named("PaymentProcessor"))
	if err != nil {
		log.Error("payment processor creating error", zap.Error(err))
		return
	}
	orderSaga, err := service.NewOrderSaga(orderRepo, eventBus,
		sagaMetrics, log.Named("OrderSaga"))
	if err != nil {
		log.Error("order saga creating error", zap.Error(err))
		return
	}
	accounts, err := service.NewAccountProvisioner(ledger, log.Named("Accounts"))
	if err != nil {
		log.Error("account provisioner creating error", zap.Error(err))
		return
	}

	eventBus.Subscribe(domain.EventOrderCreated, paymentProcessor.HandleEvent)
	eventBus.Subscribe(domain.EventPaymentResult, orderSaga.HandleEvent)
	eventBus.Start(ctx)
	defer eventBus.Stop()

	go orderSaga.RunReconciler(ctx, conf.Saga.ReconcileInterval, conf.Saga.PendingMaxAge)

	orderHandler, err := http.NewOrderHandler(orderSaga, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	accountHandler, err := http.NewAccountHandler(accounts, log.Named("Account handler"))
	if err != nil {
		log.Error("account handler creating error", zap.Error(err))
		return
	}
	paymentHandler, err := http.NewPaymentHandler(paymentProcessor, log.Named("Payment handler"))
	if err != nil {
		log.Error("payment handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, orderHandler, accountHandler,
		paymentHandler, sagaMetrics.Handler())
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
