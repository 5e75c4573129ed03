package model

import "time"

// TransactionType is the kind tag of a transaction on the stream.
type TransactionType string

const (
	TransactionTypeUnspecified     TransactionType = "TRANSACTION_TYPE_UNSPECIFIED"
	TransactionTypeGenesis         TransactionType = "TRANSACTION_TYPE_GENESIS"
	TransactionTypeBlockMetadata   TransactionType = "TRANSACTION_TYPE_BLOCK_METADATA"
	TransactionTypeStateCheckpoint TransactionType = "TRANSACTION_TYPE_STATE_CHECKPOINT"
	TransactionTypeUser            TransactionType = "TRANSACTION_TYPE_USER"
	TransactionTypeValidator       TransactionType = "TRANSACTION_TYPE_VALIDATOR"
	TransactionTypeBlockEpilogue   TransactionType = "TRANSACTION_TYPE_BLOCK_EPILOGUE"
)

// RawTransaction is a transaction as delivered by the upstream stream.
// 64-bit integers are quoted in JSON, matching the protobuf JSON mapping.
type RawTransaction struct {
	Version     uint64           `json:"version,string"`
	BlockHeight uint64           `json:"block_height,string"`
	Timestamp   Timestamp        `json:"timestamp"`
	Type        TransactionType  `json:"type"`
	User        *UserTransaction `json:"user,omitempty"`
}

// UserTransaction carries the events emitted by a user transaction.
type UserTransaction struct {
	Events []RawEvent `json:"events"`
}

// RawEvent is an event emitted by a transaction.
type RawEvent struct {
	Key            *EventKey `json:"key,omitempty"`
	SequenceNumber uint64    `json:"sequence_number,string"`
	TypeStr        string    `json:"type_str"`
	Data           string    `json:"data"`
}

// EventKey scopes an event stream to its originating account.
type EventKey struct {
	CreationNumber uint64 `json:"creation_number,string"`
	AccountAddress string `json:"account_address"`
}

// Timestamp is a wall-clock instant with nanosecond precision.
type Timestamp struct {
	Seconds int64 `json:"seconds,string"`
	Nanos   int32 `json:"nanos"`
}

// Time converts the timestamp to UTC time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// TransactionBatch is a contiguous closed version range and its transactions.
type TransactionBatch struct {
	StartVersion uint64           `json:"start_version,string"`
	EndVersion   uint64           `json:"end_version,string"`
	Transactions []RawTransaction `json:"transactions"`
}
