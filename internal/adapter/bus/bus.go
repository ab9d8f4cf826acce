package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

const partitionBuffer = 256

type envelope struct {
	id      string
	attempt int
	event   domain.Event
}

// DeadLetterFunc receives events the bus gave up on: either the attempt cap
// was reached or a handler reported an unretryable error.
type DeadLetterFunc func(event domain.Event, attempts int, err error)

// Bus is an in-memory, at-least-once event bus. Events are hashed onto a
// fixed set of partitions by PartitionKey, and each partition is drained by
// a single worker goroutine, so two events for the same order are never
// handled concurrently while different orders proceed in parallel. A
// handler error requeues the envelope after a delay, up to maxAttempts;
// after that the envelope goes to the dead-letter callback.
type Bus struct {
	logger      *zap.Logger
	metrics     port.SagaMetrics
	mu          sync.RWMutex
	subs        map[string][]port.EventHandler
	partitions  []chan envelope
	delay       time.Duration
	maxAttempts int
	deadLetter  DeadLetterFunc
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewBus(partitions, maxAttempts int, delay time.Duration,
	deadLetter DeadLetterFunc, metrics port.SagaMetrics, logger *zap.Logger) *Bus {
	if partitions < 1 {
		partitions = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	chans := make([]chan envelope, partitions)
	for i := range chans {
		chans[i] = make(chan envelope, partitionBuffer)
	}

	return &Bus{
		logger:      logger,
		metrics:     metrics,
		subs:        make(map[string][]port.EventHandler),
		partitions:  chans,
		delay:       delay,
		maxAttempts: maxAttempts,
		deadLetter:  deadLetter,
	}
}

func (b *Bus) Subscribe(eventName string, handler port.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], handler)
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	env := envelope{
		id:      uuid.NewString(),
		attempt: 1,
		event:   event,
	}

	select {
	case b.partition(event) <- env:
		b.logger.Debug("Event enqueued",
			zap.String("event", event.EventName()),
			zap.String("message", env.id))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		b.cancel = cancel

		for i, ch := range b.partitions {
			b.wg.Add(1)
			go b.worker(bg, i, ch)
		}
		b.logger.Info("Event bus started", zap.Int("partitions", len(b.partitions)))
	})
}

func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		b.logger.Info("Event bus stopped")
	})
}

func (b *Bus) partition(event domain.Event) chan envelope {
	key := event.PartitionKey()
	if key < 0 {
		key = -key
	}
	return b.partitions[key%int64(len(b.partitions))]
}

func (b *Bus) worker(ctx context.Context, partition int, ch chan envelope) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			b.logger.Debug("Partition worker stopped", zap.Int("partition", partition))
			return
		case env := <-ch:
			b.deliver(ctx, ch, env)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, ch chan envelope, env envelope) {
	name := env.event.EventName()

	b.mu.RLock()
	handlers := append([]port.EventHandler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("Event dropped, no subscriber", zap.String("event", name))
		return
	}

	var err error
	for _, h := range handlers {
		if err = h(ctx, env.event); err != nil {
			break
		}
	}
	if err == nil {
		return
	}

	// A failed compensation must never be retried: redelivery could debit
	// the customer a second time. Straight to the operator queue.
	if errors.Is(err, domain.ErrCompensationFailed) || env.attempt >= b.maxAttempts {
		b.logger.Error("Event dead-lettered",
			zap.String("event", name),
			zap.String("message", env.id),
			zap.Int("attempts", env.attempt),
			zap.Error(err))
		b.metrics.EventDeadLettered(name)
		if b.deadLetter != nil {
			b.deadLetter(env.event, env.attempt, err)
		}
		return
	}

	b.logger.Warn("Handler failed, scheduling redelivery",
		zap.String("event", name),
		zap.String("message", env.id),
		zap.Int("attempt", env.attempt),
		zap.Error(err))

	next := envelope{id: env.id, attempt: env.attempt + 1, event: env.event}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		timer := time.NewTimer(b.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			select {
			case ch <- next:
			case <-ctx.Done():
			}
		}
	}()
}
