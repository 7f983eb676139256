// Package queue dispatches article processing jobs. The Kafka path uses a
// sarama producer/consumer group so multiple workers can share a backlog;
// when no brokers are configured the in-process dispatcher keeps a single
// binary fully functional.
package queue

import (
	"context"

	"github.com/google/uuid"
)

// Job is one processing request. ProviderID overrides the user's default
// AI provider when set.
type Job struct {
	UserID     uuid.UUID `json:"user_id"`
	ArticleID  uuid.UUID `json:"article_id"`
	ProviderID *uint     `json:"provider_id,omitempty"`
}

// Processor consumes one job. Failures are recorded on the article row by
// the processor itself, so the queue never retries a returned error.
type Processor func(ctx context.Context, job Job) error

// Queue accepts jobs for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Close() error
}
