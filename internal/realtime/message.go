package realtime

import "time"

type MessageType string

const (
	// TypeEntriesChanged tells a device new entry changes exist server-side;
	// the device reacts by running a sync cycle. No payload beyond the tenant.
	TypeEntriesChanged MessageType = "entries_changed"
	TypePing           MessageType = "ping"
)

type Message struct {
	Type      MessageType `json:"type"`
	Tenant    string      `json:"tenant,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
