package domain

const (
	SyncActionUpsert = "upsert"
	SyncActionDelete = "delete"
)

// SyncEntryPayload is the entry shape a device pushes during sync. It is the
// create payload plus the client's own deletion marker so a deleted-then-synced
// entry arrives already tombstoned.
type SyncEntryPayload struct {
	CreateEntryRequest
	DeletedAt *string `json:"deleted_at"`
}

type SyncChange struct {
	Action        string            `json:"action"`
	Entry         *SyncEntryPayload `json:"entry,omitempty"`
	ClientEventID string            `json:"client_event_id,omitempty"`
}

type SyncRequest struct {
	DeviceID string       `json:"device_id" validate:"required"`
	Cursor   *string      `json:"cursor"`
	Changes  []SyncChange `json:"changes"`
}

type SyncResponse struct {
	Cursor  string   `json:"cursor"`
	Entries []*Entry `json:"entries"`
}
