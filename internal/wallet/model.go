package wallet

import "time"

// Wallet is a single-currency stored value account owned by one employee.
// The balance is held in minor units and is mutated only through
// Repository.Adjust.
type Wallet struct {
	ID         string
	HolderName string
	Phone      string
	Balance    int64
	Status     string
	CreatedAt  time.Time
}

// Balance reports available funds for a wallet at a point in time.
type Balance struct {
	WalletID string
	Amount   int64
	AsOf     time.Time
}
