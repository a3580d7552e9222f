package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/storage"
)

// errMalformed marks a message body that can never be persisted.
var errMalformed = errors.New("malformed interaction")

const defaultRetryDelay = 2 * time.Second

// PersistWorker consumes published records and appends them to a store.
type PersistWorker struct {
	conn       *amqp.Connection
	sink       storage.Sink
	queueName  string
	logger     *zap.Logger
	retryDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerOption configures a PersistWorker.
type WorkerOption func(*PersistWorker)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WorkerOption {
	return func(w *PersistWorker) {
		w.logger = l
	}
}

// WithRetryDelay sets how long a message whose append failed waits before it is requeued.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(w *PersistWorker) {
		w.retryDelay = d
	}
}

// NewPersistWorker returns a worker that drains queueName into sink.
func NewPersistWorker(conn *amqp.Connection, sink storage.Sink, queueName string, opts ...WorkerOption) *PersistWorker {
	w := &PersistWorker{
		conn:       conn,
		sink:       sink,
		queueName:  queueName,
		logger:     zap.NewNop(),
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins consuming in a goroutine. Calling Start twice is a no-op.
func (w *PersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := declare(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()

	w.logger.Info("Persist worker started", zap.String("queue", w.queueName))
	return nil
}

// process persists one delivery and settles it. Malformed bodies are dropped; append
// failures are requeued after the retry delay so records survive a store outage.
func (w *PersistWorker) process(ctx context.Context, d amqp.Delivery) {
	err := w.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformed):
		w.logger.Warn("Dropping malformed interaction", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		w.logger.Warn("Persist failed, requeueing interaction", zap.Error(err))
		t := time.NewTimer(w.retryDelay)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
		_ = d.Nack(false, true)
	}
}

// handle decodes one message body and appends it to the sink.
func (w *PersistWorker) handle(ctx context.Context, body []byte) error {
	rec, err := decode(body)
	if err != nil {
		return err
	}
	if err := w.sink.Append(ctx, rec); err != nil {
		return fmt.Errorf("persist interaction failed: %w", err)
	}
	return nil
}

// Close stops consuming and waits for the in-flight message.
func (w *PersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
