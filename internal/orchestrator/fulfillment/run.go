// Package fulfillment drains the receipt queue filled by order settlement and
// emails a receipt for each paid order.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/model"
	"coursemart/internal/pgmq"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type OrderReader interface {
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type ReceiptSender interface {
	SendReceipt(ctx context.Context, u *model.User, o *model.Order) error
}

type Options struct {
	Queue           string
	DeadLetterQueue string
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Queue:           cfg.FulfillmentQueueName,
		DeadLetterQueue: cfg.FulfillmentDeadLetterQueueName,
		PollTimeoutSec:  cfg.FulfillmentPollTimeoutSec,
		PollMaxMsg:      cfg.FulfillmentPollMaxMsg,
		MaxRetries:      cfg.FulfillmentMaxRetries,
		BackoffInitial:  time.Duration(cfg.FulfillmentBackoffInitialSec) * time.Second,
		BackoffMax:      time.Duration(cfg.FulfillmentBackoffMaxSec) * time.Second,
	}
}

// errSkip marks jobs that can never succeed and are dropped without retry.
var errSkip = errors.New("job skipped")

type Worker struct {
	queue  Queue
	orders OrderReader
	users  UserReader
	email  ReceiptSender
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

func New(queue Queue, orders OrderReader, users UserReader, email ReceiptSender, opts Options, logger zerolog.Logger) *Worker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.PollMaxMsg < 1 {
		opts.PollMaxMsg = 1
	}
	return &Worker{
		queue:  queue,
		orders: orders,
		users:  users,
		email:  email,
		opts:   opts,
		sleep:  sleepCtx,
		logger: logger.With().Str("orchestrator", "fulfillment").Logger(),
	}
}

// visibilitySec keeps a whole batch hidden while it is handled. Messages in a
// batch are processed one after another, so the last one waits for every
// earlier message's full retry budget.
func (o Options) visibilitySec() int {
	perMessage := 30 + o.MaxRetries*int(o.BackoffMax/time.Second)
	return perMessage * o.PollMaxMsg
}

// Run polls the receipt queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	visibility := w.opts.visibilitySec()
	w.logger.Info().Str("queue", w.opts.Queue).Str("dlq", w.opts.DeadLetterQueue).Int("visibility_sec", visibility).Msg("Starting fulfillment orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down fulfillment orchestrator")
			return nil
		default:
		}
		msgs, err := w.queue.ReadWithPoll(ctx, w.opts.Queue, visibility, w.opts.PollTimeoutSec, w.opts.PollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading receipt queue")
			_ = w.sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCount).Logger()

	var job service.ReceiptJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.OrderID == "" {
		log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Malformed receipt job; deleting message")
		w.ack(ctx, log, msg.ID)
		return
	}
	log = log.With().Str("order_id", job.OrderID).Logger()

	backoff := w.opts.BackoffInitial
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		lastErr = w.deliver(ctx, job)
		if lastErr == nil {
			log.Info().Int("attempt", attempt).Msg("Receipt sent")
			w.ack(ctx, log, msg.ID)
			return
		}
		if errors.Is(lastErr, errSkip) {
			log.Warn().Err(lastErr).Msg("Receipt job dropped")
			w.ack(ctx, log, msg.ID)
			return
		}
		log.Error().Err(lastErr).Int("attempt", attempt).Msg("Receipt delivery failed")
		if attempt == w.opts.MaxRetries {
			break
		}
		if err := w.sleep(ctx, backoff); err != nil {
			// shutting down; the message becomes visible again
			return
		}
		backoff *= 2
		if backoff > w.opts.BackoffMax {
			backoff = w.opts.BackoffMax
		}
	}

	if err := w.queue.Send(ctx, w.opts.DeadLetterQueue, msg.Data); err != nil {
		log.Error().Err(err).Str("dlq", w.opts.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		return
	}
	w.ack(ctx, log, msg.ID)
	log.Warn().Err(lastErr).Int("attempts", w.opts.MaxRetries).Msg("Exhausted receipt retries; moved job to DLQ")
}

func (w *Worker) deliver(ctx context.Context, job service.ReceiptJob) error {
	o, err := w.orders.GetOrderByID(ctx, job.OrderID)
	if err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("%w: order not found", errSkip)
	}
	if o.Status != model.OrderStatusPaid {
		return fmt.Errorf("%w: order is %s", errSkip, o.Status)
	}
	u, err := w.users.GetUserByID(ctx, o.UserID)
	if err != nil {
		return err
	}
	if u == nil || u.Email == "" {
		return fmt.Errorf("%w: buyer has no email", errSkip)
	}
	return w.email.SendReceipt(ctx, u, o)
}

func (w *Worker) ack(ctx context.Context, log zerolog.Logger, id int64) {
	if err := w.queue.Delete(ctx, w.opts.Queue, []int64{id}); err != nil {
		log.Error().Err(err).Msg("Error deleting receipt message")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
