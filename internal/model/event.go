package model

import (
	"encoding/json"
	"time"
)

// Event is the persisted form of a tracked on-chain event.
// Numeric fields are decimal strings so the store never loses precision.
type Event struct {
	TransactionVersion     string    `json:"transaction_version"`
	EventIndex             string    `json:"event_index"`
	SequenceNumber         string    `json:"sequence_number"`
	CreationNumber         string    `json:"creation_number"`
	AccountAddress         string    `json:"account_address"`
	Type                   string    `json:"type"`
	Data                   string    `json:"data"`
	TransactionBlockHeight string    `json:"transaction_block_height"`
	InsertedAt             time.Time `json:"inserted_at"`
}

// MarshalJSON writes inserted_at in UTC with nanosecond precision so output
// is identical regardless of the producing host's time zone.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	return json.Marshal(struct {
		Alias
		InsertedAt string `json:"inserted_at"`
	}{
		Alias:      Alias(e),
		InsertedAt: e.InsertedAt.UTC().Format(time.RFC3339Nano),
	})
}

// NormalizeAddress prefixes a bare hex account address with 0x.
func NormalizeAddress(address string) string {
	return "0x" + address
}
