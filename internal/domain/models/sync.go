package models

import (
	"encoding/json"
	"time"
)

const (
	SyncNewOrder     = "NEW_ORDER"
	SyncOrderUpdated = "ORDER_UPDATED"
)

// SyncMessage is the cross-display wire format. Receivers must treat it as a
// hint to re-read the local store, never as the record itself.
type SyncMessage struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}

const (
	SyncRecordOrder     = "order"
	SyncRecordOrderItem = "orderItem"

	SyncActionCreate = "create"
	SyncActionUpdate = "update"
)

// SyncRecord is a queued remote write awaiting retry (the outbox).
type SyncRecord struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Action     string          `json:"action"`
	Data       json.RawMessage `json:"data"`
	RetryCount int             `json:"retryCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}
