package dto

import "time"

// NotificationResponse aviso del panel.
type NotificationResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Priority  string         `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Category  string         `json:"category,omitempty"`
	BranchID  string         `json:"branch_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}
