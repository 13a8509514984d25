package transaction

import "context"

// Repository persists the append-mostly transaction log.
type Repository interface {
	Create(ctx context.Context, tx Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	GetByReference(ctx context.Context, reference string) (Transaction, error)
	// ApplyTransition conditionally moves a pending record to the target status
	// and sets admin remarks in the same write. It reports whether the update
	// was applied; false means the record was absent or no longer pending.
	ApplyTransition(ctx context.Context, id string, status Status, remarks string) (bool, error)
	ListByWallet(ctx context.Context, walletID string) ([]Transaction, error)
	// List returns the filtered page slice plus the total match count.
	List(ctx context.Context, filter Filter) ([]Transaction, int, error)
	// GroupTotals aggregates count and amount by (type, status), optionally
	// scoped to one wallet.
	GroupTotals(ctx context.Context, walletID string) ([]GroupTotal, error)
}
