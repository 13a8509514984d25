package transaction

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Transaction
	byRef   map[string]string
	ordered []string
}

// NewMemoryRepository constructs an in-memory transaction store for tests and
// local development. It mirrors the Postgres semantics, including reference
// uniqueness and the pending-only transition guard.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:  make(map[string]Transaction),
		byRef: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRef[tx.Reference]; exists {
		return ErrDuplicateReference
	}
	r.byID[tx.ID] = tx
	r.byRef[tx.Reference] = tx.ID
	r.ordered = append(r.ordered, tx.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (r *memoryRepository) GetByReference(_ context.Context, reference string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRef[reference]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) ApplyTransition(_ context.Context, id string, status Status, remarks string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok || tx.Status != StatusPending {
		return false, nil
	}
	tx.Status = status
	tx.AdminRemarks = remarks
	r.byID[id] = tx
	return true, nil
}

func (r *memoryRepository) ListByWallet(_ context.Context, walletID string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var records []Transaction
	for _, id := range r.ordered {
		if tx := r.byID[id]; tx.WalletID == walletID {
			records = append(records, tx)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]Transaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Transaction
	for _, id := range r.ordered {
		tx := r.byID[id]
		if matches(tx, filter) {
			matched = append(matched, tx)
		}
	}
	sortNewestFirst(matched)

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryRepository) GroupTotals(_ context.Context, walletID string) ([]GroupTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index := make(map[[2]string]*GroupTotal)
	var keys [][2]string
	for _, id := range r.ordered {
		tx := r.byID[id]
		if walletID != "" && tx.WalletID != walletID {
			continue
		}
		key := [2]string{string(tx.Type), string(tx.Status)}
		group, ok := index[key]
		if !ok {
			group = &GroupTotal{Type: tx.Type, Status: tx.Status}
			index[key] = group
			keys = append(keys, key)
		}
		group.Count++
		group.TotalAmount += tx.Amount
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	groups := make([]GroupTotal, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *index[key])
	}
	return groups, nil
}

func matches(tx Transaction, filter Filter) bool {
	if filter.WalletID != "" && tx.WalletID != filter.WalletID {
		return false
	}
	if filter.Type != "" && tx.Type != filter.Type {
		return false
	}
	if filter.Status != "" && tx.Status != filter.Status {
		return false
	}
	if filter.MinAmount > 0 && tx.Amount < filter.MinAmount {
		return false
	}
	if filter.MaxAmount > 0 && tx.Amount > filter.MaxAmount {
		return false
	}
	if !filter.From.IsZero() && tx.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && tx.CreatedAt.After(filter.To) {
		return false
	}
	return true
}

func sortNewestFirst(records []Transaction) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
}
