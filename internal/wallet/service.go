package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const statusActive = "active"

// Service exposes the wallet directory: creation, lookup and balance reads.
type Service struct {
	repo Repository
}

// NewService builds a wallet service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures data required to open a wallet.
type CreateInput struct {
	HolderName string
	Phone      string
}

// Create provisions a wallet for an employee with a zero opening balance.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if input.HolderName == "" {
		return Wallet{}, fmt.Errorf("holder name is required")
	}
	if input.Phone == "" {
		return Wallet{}, fmt.Errorf("phone is required")
	}

	wallet := Wallet{
		ID:         uuid.New().String(),
		HolderName: input.HolderName,
		Phone:      input.Phone,
		Balance:    0,
		Status:     statusActive,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// Find retrieves wallet metadata, balance included. This is the directory
// contract consumed by the transfer orchestrator and the notifier.
func (s *Service) Find(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// Balance returns the current stored balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: wallet.ID, Amount: wallet.Balance, AsOf: time.Now().UTC()}, nil
}

// Adjust applies a balance delta through the repository's atomic conditional
// update and returns the resulting balance.
func (s *Service) Adjust(ctx context.Context, id string, delta int64) (int64, error) {
	return s.repo.Adjust(ctx, id, delta)
}
