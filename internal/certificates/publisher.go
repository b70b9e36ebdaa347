package certificates

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

const defaultPublishTimeout = 30 * time.Second

// JobPublisher abstracts the queue so the service can be tested without GCP.
type JobPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

type gcpJobPublisher struct {
	pub *pubsub.Publisher
}

// NewJobPublisher wraps a Pub/Sub publisher handle.
func NewJobPublisher(pub *pubsub.Publisher) JobPublisher {
	return &gcpJobPublisher{pub: pub}
}

func (p *gcpJobPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("publisher not configured")
	}
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, &pubsub.Message{Data: data, Attributes: attrs})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}
