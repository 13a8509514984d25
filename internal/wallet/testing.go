package wallet

// SeedBalance is a test helper that sets a wallet balance directly when using
// the in-memory repository.
func SeedBalance(r Repository, id string, amount int64) {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.storage[id]
		w.Balance = amount
		mem.storage[id] = w
	}
}
