package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazi-pay/kazi_pay/internal/mpesa"
	"github.com/kazi-pay/kazi_pay/internal/notification"
	"github.com/kazi-pay/kazi_pay/internal/transaction"
	"github.com/kazi-pay/kazi_pay/internal/wallet"
)

// ErrReconciliation is fatal: a multi-step transfer failed partway and the
// compensating reversal also failed, leaving the ledger and reality apart.
// It must reach an operator; it is never absorbed.
var ErrReconciliation = errors.New("transfer requires manual reconciliation")

// Service sequences the multi-step transfer flows across the wallet store,
// the transaction log, the mobile-money gateway and the notifier.
type Service struct {
	wallets      *wallet.Service
	transactions *transaction.Service
	gateway      mpesa.Gateway
	notifier     notification.Notifier
	logger       *slog.Logger
}

// NewService constructs a transfer orchestrator.
func NewService(wallets *wallet.Service, transactions *transaction.Service, gateway mpesa.Gateway, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		wallets:      wallets,
		transactions: transactions,
		gateway:      gateway,
		notifier:     notifier,
		logger:       logger,
	}
}

// Result summarizes a completed orchestration. It is returned to the caller
// and never persisted.
type Result struct {
	Reference        string
	SenderBalance    int64
	RecipientBalance int64
	CompletedAt      time.Time
}

// WalletTransferInput captures an internal wallet-to-wallet transfer request.
type WalletTransferInput struct {
	SenderWalletID    string
	RecipientWalletID string
	Amount            int64
	Description       string
}

// WalletToWallet moves funds between two internal wallets. The transaction
// record is created before any balance moves, so a failed transfer still
// leaves an auditable failed record.
func (s *Service) WalletToWallet(ctx context.Context, input WalletTransferInput) (Result, error) {
	sender, err := s.wallets.Find(ctx, input.SenderWalletID)
	if err != nil {
		return Result{}, err
	}
	recipient, err := s.wallets.Find(ctx, input.RecipientWalletID)
	if err != nil {
		return Result{}, err
	}

	record, err := s.transactions.Create(ctx, transaction.CreateInput{
		WalletID:          input.SenderWalletID,
		Type:              transaction.TypeTransferToWallet,
		Amount:            input.Amount,
		RecipientWalletID: input.RecipientWalletID,
		Description:       input.Description,
	})
	if err != nil {
		return Result{}, err
	}

	senderBalance, err := s.wallets.Adjust(ctx, input.SenderWalletID, -input.Amount)
	if err != nil {
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("debit failed: %v", err))
		return Result{}, err
	}

	recipientBalance, err := s.wallets.Adjust(ctx, input.RecipientWalletID, input.Amount)
	if err != nil {
		// Put the sender's money back before failing the record.
		if _, revErr := s.wallets.Adjust(ctx, input.SenderWalletID, input.Amount); revErr != nil {
			s.logger.Error("transfer reversal failed, balances mismatched",
				"reference", record.Reference,
				"sender_wallet", input.SenderWalletID,
				"amount", input.Amount,
				"credit_error", err,
				"reversal_error", revErr,
			)
			s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("credit failed and reversal failed: %v / %v", err, revErr))
			return Result{}, fmt.Errorf("%w: reference %s", ErrReconciliation, record.Reference)
		}
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("credit failed: %v", err))
		return Result{}, err
	}

	s.finalize(ctx, record.ID, transaction.StatusCompleted, "")

	s.notify(ctx, notification.TransferNotice{
		Kind:             notification.KindWalletTransfer,
		Amount:           input.Amount,
		SenderName:       sender.HolderName,
		SenderPhone:      sender.Phone,
		SenderBalance:    senderBalance,
		RecipientName:    recipient.HolderName,
		RecipientPhone:   recipient.Phone,
		RecipientBalance: recipientBalance,
	})

	return Result{
		Reference:        record.Reference,
		SenderBalance:    senderBalance,
		RecipientBalance: recipientBalance,
		CompletedAt:      time.Now().UTC(),
	}, nil
}

// CollectionInput captures a request to pull funds from mobile money into a
// wallet.
type CollectionInput struct {
	WalletID string
	Phone    string
	Amount   int64
}

// MpesaToWallet initiates a collection from the subscriber's mobile-money
// account. Crediting the wallet is driven by the gateway's asynchronous
// confirmation, never by this call.
func (s *Service) MpesaToWallet(ctx context.Context, input CollectionInput) (mpesa.Ack, error) {
	if input.Amount <= 0 {
		return mpesa.Ack{}, fmt.Errorf("%w: amount must be positive", transaction.ErrValidation)
	}
	if !transaction.ValidMpesaPhone(input.Phone) {
		return mpesa.Ack{}, fmt.Errorf("%w: phone must be a 254-prefixed 12 digit number", transaction.ErrValidation)
	}
	if _, err := s.wallets.Find(ctx, input.WalletID); err != nil {
		return mpesa.Ack{}, err
	}

	ack, err := s.gateway.InitiateCollection(ctx, input.Phone, input.Amount, input.WalletID)
	if err != nil {
		return mpesa.Ack{}, err
	}
	return ack, nil
}

// ConfirmationInput carries the gateway's collection confirmation callback.
type ConfirmationInput struct {
	WalletID         string
	Amount           int64
	GatewayReference string
}

// ConfirmCollection is the callback leg of MpesaToWallet: it records and
// completes the receive_from_mpesa entry and credits the wallet.
func (s *Service) ConfirmCollection(ctx context.Context, input ConfirmationInput) (Result, error) {
	recipient, err := s.wallets.Find(ctx, input.WalletID)
	if err != nil {
		return Result{}, err
	}

	record, err := s.transactions.Create(ctx, transaction.CreateInput{
		WalletID:    input.WalletID,
		Type:        transaction.TypeReceiveFromMpesa,
		Amount:      input.Amount,
		Description: "mobile money deposit",
	})
	if err != nil {
		return Result{}, err
	}

	balance, err := s.wallets.Adjust(ctx, input.WalletID, input.Amount)
	if err != nil {
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("credit failed: %v", err))
		return Result{}, err
	}

	s.finalize(ctx, record.ID, transaction.StatusCompleted, "gateway ref "+input.GatewayReference)

	s.notify(ctx, notification.TransferNotice{
		Kind:             notification.KindMpesaDeposit,
		Amount:           input.Amount,
		RecipientName:    recipient.HolderName,
		RecipientPhone:   recipient.Phone,
		RecipientBalance: balance,
	})

	return Result{
		Reference:        record.Reference,
		RecipientBalance: balance,
		CompletedAt:      time.Now().UTC(),
	}, nil
}

// WithdrawalInput captures a payout from a wallet to mobile money.
type WithdrawalInput struct {
	WalletID    string
	Phone       string
	Amount      int64
	Description string
}

// WalletToMpesa pays out wallet funds to the mobile-money network. Funds are
// reserved (debited) before the external call; a gateway failure refunds the
// reservation. A failed refund is a reconciliation failure.
func (s *Service) WalletToMpesa(ctx context.Context, input WithdrawalInput) (Result, error) {
	sender, err := s.wallets.Find(ctx, input.WalletID)
	if err != nil {
		return Result{}, err
	}

	record, err := s.transactions.Create(ctx, transaction.CreateInput{
		WalletID:       input.WalletID,
		Type:           transaction.TypeWithdrawal,
		Amount:         input.Amount,
		RecipientPhone: input.Phone,
		Description:    input.Description,
	})
	if err != nil {
		return Result{}, err
	}

	balance, err := s.wallets.Adjust(ctx, input.WalletID, -input.Amount)
	if err != nil {
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("reserve failed: %v", err))
		return Result{}, err
	}

	reason := input.Description
	if reason == "" {
		reason = "wallet withdrawal"
	}
	if _, err := s.gateway.InitiateDisbursement(ctx, input.Phone, input.Amount, reason); err != nil {
		if _, refundErr := s.wallets.Adjust(ctx, input.WalletID, input.Amount); refundErr != nil {
			s.logger.Error("withdrawal refund failed, balances mismatched",
				"reference", record.Reference,
				"wallet", input.WalletID,
				"amount", input.Amount,
				"gateway_error", err,
				"refund_error", refundErr,
			)
			s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("disbursement failed and refund failed: %v / %v", err, refundErr))
			return Result{}, fmt.Errorf("%w: reference %s", ErrReconciliation, record.Reference)
		}
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("disbursement failed: %v", err))
		return Result{}, err
	}

	s.finalize(ctx, record.ID, transaction.StatusCompleted, "")

	s.notify(ctx, notification.TransferNotice{
		Kind:           notification.KindMpesaWithdrawal,
		Amount:         input.Amount,
		SenderName:     sender.HolderName,
		SenderPhone:    sender.Phone,
		SenderBalance:  balance,
		RecipientPhone: input.Phone,
	})

	return Result{
		Reference:     record.Reference,
		SenderBalance: balance,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// AdvanceInput carries an approved payroll advance to credit.
type AdvanceInput struct {
	WalletID  string
	Amount    int64
	Reference string
}

// AdvanceToWallet credits an approved payroll advance into the wallet. The
// approval decision itself lives with the payroll collaborator; the amount
// here is the approved advance amount.
func (s *Service) AdvanceToWallet(ctx context.Context, input AdvanceInput) (Result, error) {
	recipient, err := s.wallets.Find(ctx, input.WalletID)
	if err != nil {
		return Result{}, err
	}

	record, err := s.transactions.Create(ctx, transaction.CreateInput{
		WalletID:    input.WalletID,
		Type:        transaction.TypeReceiveFromAdvance,
		Amount:      input.Amount,
		Description: "payroll advance " + input.Reference,
	})
	if err != nil {
		return Result{}, err
	}

	balance, err := s.wallets.Adjust(ctx, input.WalletID, input.Amount)
	if err != nil {
		s.finalize(ctx, record.ID, transaction.StatusFailed, fmt.Sprintf("credit failed: %v", err))
		return Result{}, err
	}

	s.finalize(ctx, record.ID, transaction.StatusCompleted, "")

	s.notify(ctx, notification.TransferNotice{
		Kind:             notification.KindAdvanceCredit,
		Amount:           input.Amount,
		RecipientName:    recipient.HolderName,
		RecipientPhone:   recipient.Phone,
		RecipientBalance: balance,
	})

	return Result{
		Reference:        record.Reference,
		RecipientBalance: balance,
		CompletedAt:      time.Now().UTC(),
	}, nil
}

// finalize moves the record to its terminal status. The orchestrator alone
// decides terminal status; a finalize failure is logged, never propagated over
// the flow's own outcome.
func (s *Service) finalize(ctx context.Context, id string, status transaction.Status, remarks string) {
	if _, err := s.transactions.UpdateStatus(ctx, id, status, remarks); err != nil {
		s.logger.Error("transaction finalize failed", "transaction_id", id, "target_status", string(status), "error", err)
	}
}

func (s *Service) notify(ctx context.Context, notice notification.TransferNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyTransfer(ctx, notice); err != nil {
		s.logger.Warn("transfer notification failed", "kind", notice.Kind, "error", err)
	}
}
