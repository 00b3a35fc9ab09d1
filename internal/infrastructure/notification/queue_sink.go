package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

var _ ports.NotificationSink = (*QueueSink)(nil)

// Pusher es la parte de *redis.Client que usa el sink.
type Pusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// QueueSink encola los avisos en una lista Redis (LPUSH); el worker los consume con BRPOP.
type QueueSink struct {
	rdb   Pusher
	queue string
}

// NewQueueSink construye el sink sobre la cola queue.
func NewQueueSink(rdb Pusher, queue string) *QueueSink {
	return &QueueSink{rdb: rdb, queue: queue}
}

func (s *QueueSink) NotifyLowStock(ctx context.Context, alert entity.LowStockAlert) error {
	return s.enqueue(ctx, JobLowStock, alert)
}

func (s *QueueSink) NotifyReturnProcessed(ctx context.Context, ev entity.ReturnProcessed) error {
	return s.enqueue(ctx, JobReturnProcessed, ev)
}

func (s *QueueSink) NotifyExchangeProcessed(ctx context.Context, ev entity.ExchangeProcessed) error {
	return s.enqueue(ctx, JobExchangeProcessed, ev)
}

func (s *QueueSink) enqueue(ctx context.Context, jobType string, event any) error {
	job, err := NewJob(jobType, event)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.rdb.LPush(ctx, s.queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}
