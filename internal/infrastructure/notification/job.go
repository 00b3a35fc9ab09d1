// Package notification contiene los adaptadores de ports.NotificationSink:
// cola Redis (procesada por internal/worker) e inserción directa en el repositorio.
package notification

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// Tipos de job en la cola.
const (
	JobLowStock          = "low_stock"
	JobReturnProcessed   = "return_processed"
	JobExchangeProcessed = "exchange_processed"
)

// Job sobre genérico de la cola; Payload es el evento serializado.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewJob serializa el evento dentro de un Job.
func NewJob(jobType string, event any) (Job, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Job{}, fmt.Errorf("marshal %s payload: %w", jobType, err)
	}
	return Job{Type: jobType, Payload: data}, nil
}

// BuildNotification convierte un job en la notificación a persistir.
func BuildNotification(job Job) (entity.Notification, error) {
	switch job.Type {
	case JobLowStock:
		var ev entity.LowStockAlert
		if err := json.Unmarshal(job.Payload, &ev); err != nil {
			return entity.Notification{}, fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return entity.NewLowStockNotification(ev), nil
	case JobReturnProcessed:
		var ev entity.ReturnProcessed
		if err := json.Unmarshal(job.Payload, &ev); err != nil {
			return entity.Notification{}, fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return entity.NewReturnNotification(ev), nil
	case JobExchangeProcessed:
		var ev entity.ExchangeProcessed
		if err := json.Unmarshal(job.Payload, &ev); err != nil {
			return entity.Notification{}, fmt.Errorf("decode %s: %w", job.Type, err)
		}
		return entity.NewExchangeNotification(ev), nil
	default:
		return entity.Notification{}, fmt.Errorf("tipo de job desconocido %q", job.Type)
	}
}
