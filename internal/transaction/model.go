package transaction

import "time"

// Type identifies the balance effect a transaction represents.
type Type string

const (
	TypeSendToMpesa        Type = "send_to_mpesa"
	TypeReceiveFromMpesa   Type = "receive_from_mpesa"
	TypeTransferToWallet   Type = "transfer_to_wallet"
	TypeReceiveFromAdvance Type = "receive_from_advance"
	TypeWithdrawal         Type = "withdrawal"
)

// Status is the lifecycle state of a transaction record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is the canonical ledger entry. Records are created pending and
// only ever mutated by a status transition; they are never deleted.
type Transaction struct {
	ID                string
	Reference         string
	WalletID          string
	Type              Type
	Amount            int64
	Status            Status
	RecipientWalletID string
	RecipientPhone    string
	Description       string
	AdminRemarks      string
	CreatedAt         time.Time
}

// Filter narrows transaction listings. Zero values impose no constraint; all
// set fields are combined with AND.
type Filter struct {
	WalletID  string
	Type      Type
	Status    Status
	MinAmount int64
	MaxAmount int64
	From      time.Time
	To        time.Time
	Page      int
	Limit     int
}

// Page is a 1-indexed slice of the transaction log.
type Page struct {
	Records    []Transaction
	Total      int
	Page       int
	Limit      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// GroupTotal is the raw (type, status) aggregation produced by the store.
type GroupTotal struct {
	Type        Type
	Status      Status
	Count       int
	TotalAmount int64
}

// StatusBreakdown summarizes one (type, status) group.
type StatusBreakdown struct {
	Status        Status
	Count         int
	TotalAmount   int64
	AverageAmount float64
}

// TypeStatistics rolls the per-status groups up to one row per type.
type TypeStatistics struct {
	Type          Type
	Count         int
	TotalAmount   int64
	AverageAmount float64
	ByStatus      []StatusBreakdown
}
