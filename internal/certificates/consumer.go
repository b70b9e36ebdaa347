package certificates

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/eventra-app/eventra-backend/pkg/enums"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/redis"
)

const lockScope = "certificates"

// Consumer pulls certificate jobs off the queue and hands them to the batch
// worker. A redis lock keeps two subscribers from running the same event's
// batch concurrently; the ledger covers the crash window the lock cannot.
type Consumer struct {
	worker       *Worker
	subscription *pubsub.Subscriber
	locks        redis.LockStore
	lockTTL      time.Duration
	logg         *logger.Logger
}

// NewConsumer builds the certificate job consumer.
func NewConsumer(worker *Worker, subscription *pubsub.Subscriber, locks redis.LockStore, lockTTL time.Duration, logg *logger.Logger) (*Consumer, error) {
	if worker == nil {
		return nil, fmt.Errorf("batch worker required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("certificate subscription required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		worker:       worker,
		subscription: subscription,
		locks:        locks,
		lockTTL:      lockTTL,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	jobType := msg.Attributes[attrJobType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"job_type":   jobType,
	})

	if jobType != string(enums.JobSendCertificates) {
		c.logg.Info(logCtx, "skipping unrelated job")
		return processResult{ack: true}
	}

	payload, err := DecodeJobPayload(msg.Data)
	if err != nil {
		// Malformed messages never become valid; drop them.
		c.logg.Error(logCtx, "failed to decode certificate job", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithEventID(logCtx, payload.RootEventID.String())

	lockKey := c.locks.LockKey(lockScope, payload.RootEventID.String())
	acquired, err := c.locks.SetNX(ctx, lockKey, msg.ID, c.lockTTL)
	if err != nil {
		c.logg.Error(logCtx, "batch lock check failed", err)
		return processResult{nack: true}
	}
	if !acquired {
		// Another subscriber is already working this event. The ledger makes
		// any follow-up run idempotent, so redelivery is safe.
		c.logg.Info(logCtx, "batch already in progress")
		return processResult{nack: true}
	}

	summary, err := c.worker.RunBatch(ctx, payload)
	if unlockErr := c.locks.Del(ctx, lockKey); unlockErr != nil {
		c.logg.Error(logCtx, "batch lock release failed", unlockErr)
	}
	if err != nil {
		c.logg.Error(logCtx, "certificate batch failed", err)
		if c.isRetryable(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"issued":  summary.Issued,
		"failed":  summary.Failed,
		"skipped": summary.Skipped,
	}), "certificate job processed")
	return processResult{ack: true}
}

func (c *Consumer) isRetryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}
