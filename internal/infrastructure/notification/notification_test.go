package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/notification"
)

type pushed struct {
	key   string
	value []byte
}

// fakePusher guarda cada LPUSH; err simula Redis caído.
type fakePusher struct {
	calls []pushed
	err   error
}

func (f *fakePusher) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, v := range values {
		f.calls = append(f.calls, pushed{key: key, value: v.([]byte)})
	}
	return redis.NewIntResult(int64(len(f.calls)), nil)
}

func TestQueueSink_EncolaJob(t *testing.T) {
	p := &fakePusher{}
	sink := notification.NewQueueSink(p, "pos:notifications")

	err := sink.NotifyReturnProcessed(context.Background(), entity.ReturnProcessed{
		ReturnID: "r-1", SaleNumber: "SALE-000003", ReturnAmount: decimal.NewFromInt(24), BranchID: "b",
	})
	require.NoError(t, err)
	require.Len(t, p.calls, 1)
	assert.Equal(t, "pos:notifications", p.calls[0].key)

	var job notification.Job
	require.NoError(t, json.Unmarshal(p.calls[0].value, &job))
	assert.Equal(t, notification.JobReturnProcessed, job.Type)

	n, err := notification.BuildNotification(job)
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationReturn, n.Type)
	assert.Equal(t, "Return processed for Sale #SALE-000003, amount: 24.00", n.Message)
	assert.Equal(t, "b", n.BranchID)
}

func TestQueueSink_ErrorDeRedis(t *testing.T) {
	sink := notification.NewQueueSink(&fakePusher{err: errors.New("connection refused")}, "q")
	err := sink.NotifyLowStock(context.Background(), entity.LowStockAlert{ProductID: "p"})
	assert.Error(t, err)
}

func TestBuildNotification(t *testing.T) {
	job, err := notification.NewJob(notification.JobLowStock, entity.LowStockAlert{
		ProductID: "p", ProductName: "Café", CurrentStock: decimal.Zero, BranchID: "b",
	})
	require.NoError(t, err)
	n, err := notification.BuildNotification(job)
	require.NoError(t, err)
	assert.Equal(t, entity.PriorityCritical, n.Priority)

	job, err = notification.NewJob(notification.JobExchangeProcessed, entity.ExchangeProcessed{ExchangeID: "e", SaleNumber: "SALE-000001"})
	require.NoError(t, err)
	n, err = notification.BuildNotification(job)
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationExchange, n.Type)

	_, err = notification.BuildNotification(notification.Job{Type: "otro", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)

	_, err = notification.BuildNotification(notification.Job{Type: notification.JobLowStock, Payload: json.RawMessage(`[`)})
	assert.Error(t, err)
}

func TestStoreSink_GuardaDirecto(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewNotificationRepository(store)
	sink := notification.NewStoreSink(repo)

	require.NoError(t, sink.NotifyLowStock(context.Background(), entity.LowStockAlert{
		ProductID: "p", ProductName: "Café", CurrentStock: decimal.NewFromInt(2), MinStock: decimal.NewFromInt(5), BranchID: "b",
	}))
	require.NoError(t, sink.NotifyExchangeProcessed(context.Background(), entity.ExchangeProcessed{ExchangeID: "e", BranchID: "b"}))

	rows, err := repo.List(context.Background(), repository.NotificationFilter{BranchID: "b"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.NotificationExchange, rows[0].Type, "más recientes primero")
	assert.Equal(t, entity.NotificationStock, rows[1].Type)
	assert.NotEmpty(t, rows[0].ID)
}
