// Package worker consume la cola de notificaciones con un pool de goroutines (BRPOP).
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/notification"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
)

// DLQPrefix prefijo de la lista de jobs fallidos: dlq:{cola}.
const DLQPrefix = "dlq:"

// Queue es la parte de *redis.Client que usa el pool.
type Queue interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// DLQEntry job fallido con metadatos para inspección manual.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
}

// NotificationPool convierte cada job en una notificación y la persiste.
type NotificationPool struct {
	rdb         Queue
	queue       string
	repo        repository.NotificationRepository
	workers     int
	pollTimeout time.Duration
	log         *logger.Logger
	metrics     *metrics.LedgerMetrics
}

// NewNotificationPool construye el pool. workers <= 0 usa 1.
func NewNotificationPool(
	rdb Queue,
	queue string,
	repo repository.NotificationRepository,
	workers int,
	log *logger.Logger,
	m *metrics.LedgerMetrics,
) *NotificationPool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationPool{
		rdb:         rdb,
		queue:       queue,
		repo:        repo,
		workers:     workers,
		pollTimeout: 5 * time.Second,
		log:         log.Component("notification_worker"),
		metrics:     m,
	}
}

// Run bloquea hasta que ctx se cancela. Cada worker espera en BRPOP con timeout para revisar ctx.
func (p *NotificationPool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.loop(ctx, id)
			return nil
		})
	}
	p.log.Info().Int("workers", p.workers).Str("queue", p.queue).Msg("worker pool iniciado")
	return g.Wait()
}

func (p *NotificationPool) loop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			p.log.Debug().Int("worker", id).Msg("worker detenido")
			return
		}
		result, err := p.rdb.BRPop(ctx, p.pollTimeout, p.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.log.Warn().Err(err).Int("worker", id).Msg("brpop falló")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.Process(ctx, result[1])
	}
}

// Process maneja un job crudo. Los que no se pueden procesar van a la DLQ.
func (p *NotificationPool) Process(ctx context.Context, raw string) {
	var job notification.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		quoted, _ := json.Marshal(raw)
		p.deadLetter(ctx, notification.Job{Payload: quoted}, err)
		return
	}
	n, err := notification.BuildNotification(job)
	if err != nil {
		p.deadLetter(ctx, job, err)
		return
	}
	if err := p.repo.Create(ctx, &n); err != nil {
		p.deadLetter(ctx, job, err)
		return
	}
	p.metrics.IncJob("ok")
	p.log.Debug().Str("type", job.Type).Str("notification_id", n.ID).Msg("notificación guardada")
}

func (p *NotificationPool) deadLetter(ctx context.Context, job notification.Job, reason error) {
	p.metrics.IncJob("dead_letter")
	entry := DLQEntry{
		OriginalQueue: p.queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason.Error(),
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		p.log.Error().Err(err).Msg("dlq: no se pudo serializar la entrada")
		return
	}
	if err := p.rdb.LPush(ctx, DLQPrefix+p.queue, data).Err(); err != nil {
		p.log.Error().Err(err).Str("dlq_key", DLQPrefix+p.queue).Msg("dlq: push falló")
		return
	}
	p.log.Warn().Str("job_type", job.Type).Str("reason", entry.Reason).Msg("dlq: job movido a la cola de fallidos")
}
