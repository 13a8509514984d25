package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// mpesaPhonePattern is the strict mobile-money MSISDN format: country code 254
// followed by a 9-digit subscriber number, 12 digits total.
var mpesaPhonePattern = regexp.MustCompile(`^254[17][0-9]{8}$`)

// ValidMpesaPhone reports whether phone is a well-formed mobile-money MSISDN.
// Local formats such as 07XXXXXXXX are rejected.
func ValidMpesaPhone(phone string) bool {
	return mpesaPhonePattern.MatchString(phone)
}

const (
	maxDescriptionLen = 255
	maxRemarksLen     = 500

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service is the transaction factory, status transition engine and query layer
// over the persisted transaction log.
type Service struct {
	repo Repository
}

// NewService builds a transaction service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures a request to record a new transaction.
type CreateInput struct {
	WalletID          string
	Type              Type
	Amount            int64
	RecipientWalletID string
	RecipientPhone    string
	Description       string
}

// Create validates the request, assigns a globally unique reference and writes
// the initial pending record. On a persisted reference collision the reference
// is regenerated once before giving up with ErrDuplicateReference.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	if _, err := uuid.Parse(input.WalletID); err != nil {
		return Transaction{}, fmt.Errorf("%w: malformed wallet id", ErrValidation)
	}
	if input.Amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if len(input.Description) > maxDescriptionLen {
		return Transaction{}, fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxDescriptionLen)
	}
	if err := validateRecipient(input); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:                uuid.New().String(),
		Reference:         NewReference(),
		WalletID:          input.WalletID,
		Type:              input.Type,
		Amount:            input.Amount,
		RecipientWalletID: input.RecipientWalletID,
		RecipientPhone:    input.RecipientPhone,
		Description:       input.Description,
		Status:            StatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	err := s.repo.Create(ctx, tx)
	if errors.Is(err, ErrDuplicateReference) {
		tx.Reference = NewReference()
		err = s.repo.Create(ctx, tx)
	}
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func validateRecipient(input CreateInput) error {
	switch input.Type {
	case TypeSendToMpesa, TypeWithdrawal:
		if !ValidMpesaPhone(input.RecipientPhone) {
			return fmt.Errorf("%w: recipient phone must be a 254-prefixed 12 digit number", ErrValidation)
		}
		if input.RecipientWalletID != "" {
			return fmt.Errorf("%w: recipient wallet not allowed for %s", ErrValidation, input.Type)
		}
	case TypeTransferToWallet:
		if _, err := uuid.Parse(input.RecipientWalletID); err != nil {
			return fmt.Errorf("%w: malformed recipient wallet id", ErrValidation)
		}
		if input.RecipientWalletID == input.WalletID {
			return fmt.Errorf("%w: recipient wallet must differ from source wallet", ErrValidation)
		}
		if input.RecipientPhone != "" {
			return fmt.Errorf("%w: recipient phone not allowed for %s", ErrValidation, input.Type)
		}
	case TypeReceiveFromMpesa, TypeReceiveFromAdvance:
		if input.RecipientWalletID != "" || input.RecipientPhone != "" {
			return fmt.Errorf("%w: recipient details not allowed for %s", ErrValidation, input.Type)
		}
	default:
		return fmt.Errorf("%w: unsupported transaction type %q", ErrValidation, input.Type)
	}
	return nil
}

// NewReference generates an external-facing reference: TRX plus 13 digits,
// unix seconds followed by a random 3 digit suffix. Collisions are only
// possible within the same second and are handled by the Create retry.
func NewReference() string {
	return fmt.Sprintf("TRX%010d%03d", time.Now().Unix(), rand.IntN(1000))
}

// Get fetches a record by internal identifier.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// GetByReference fetches a record by its TRX reference.
func (s *Service) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	return s.repo.GetByReference(ctx, reference)
}

// UpdateStatus moves a pending record to completed or failed, optionally
// attaching admin remarks. Any other requested transition fails with
// ErrInvalidTransition and leaves the record unchanged.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, remarks string) (Transaction, error) {
	if status != StatusCompleted && status != StatusFailed {
		return Transaction{}, fmt.Errorf("%w: %q is not a terminal status", ErrInvalidTransition, status)
	}
	if len(remarks) > maxRemarksLen {
		return Transaction{}, fmt.Errorf("%w: remarks exceed %d characters", ErrValidation, maxRemarksLen)
	}

	applied, err := s.repo.ApplyTransition(ctx, id, status, remarks)
	if err != nil {
		return Transaction{}, err
	}
	if !applied {
		// Distinguish a missing record from one already in a terminal state.
		if _, getErr := s.repo.Get(ctx, id); getErr != nil {
			return Transaction{}, getErr
		}
		return Transaction{}, ErrInvalidTransition
	}
	return s.repo.Get(ctx, id)
}

// ListByWallet returns the wallet's full history, newest first.
func (s *Service) ListByWallet(ctx context.Context, walletID string) ([]Transaction, error) {
	return s.repo.ListByWallet(ctx, walletID)
}

// List applies the filter and returns one page of matches.
func (s *Service) List(ctx context.Context, filter Filter) (Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.MinAmount < 0 || filter.MaxAmount < 0 {
		return Page{}, fmt.Errorf("%w: amount bounds must not be negative", ErrValidation)
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	return Page{
		Records:    records,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		HasNext:    filter.Page < totalPages,
		HasPrev:    filter.Page > 1 && total > 0,
	}, nil
}

// Statistics rolls the (type, status) group totals up to one summary per type.
// Averages are rounded to two decimal places.
func (s *Service) Statistics(ctx context.Context, walletID string) ([]TypeStatistics, error) {
	groups, err := s.repo.GroupTotals(ctx, walletID)
	if err != nil {
		return nil, err
	}

	var stats []TypeStatistics
	for _, g := range groups {
		breakdown := StatusBreakdown{
			Status:        g.Status,
			Count:         g.Count,
			TotalAmount:   g.TotalAmount,
			AverageAmount: round2(float64(g.TotalAmount) / float64(g.Count)),
		}

		if len(stats) == 0 || stats[len(stats)-1].Type != g.Type {
			stats = append(stats, TypeStatistics{Type: g.Type})
		}
		last := &stats[len(stats)-1]
		last.Count += g.Count
		last.TotalAmount += g.TotalAmount
		last.ByStatus = append(last.ByStatus, breakdown)
	}

	for i := range stats {
		stats[i].AverageAmount = round2(float64(stats[i].TotalAmount) / float64(stats[i].Count))
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
