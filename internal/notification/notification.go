package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWalletTransfer indicates an internal wallet-to-wallet transfer.
	KindWalletTransfer = "wallet_transfer"
	// KindMpesaWithdrawal indicates a payout to the mobile-money network.
	KindMpesaWithdrawal = "mpesa_withdrawal"
	// KindMpesaDeposit indicates a credit received from the mobile-money network.
	KindMpesaDeposit = "mpesa_deposit"
	// KindAdvanceCredit indicates a payroll advance landing in the wallet.
	KindAdvanceCredit = "advance_credit"
)

// TransferNotice describes a completed movement of funds for delivery to both
// parties. Balances are post-transfer.
type TransferNotice struct {
	Kind             string
	Amount           int64
	SenderName       string
	SenderPhone      string
	SenderBalance    int64
	RecipientName    string
	RecipientPhone   string
	RecipientBalance int64
}

// Notifier delivers transfer notices to downstream channels. Delivery is
// best-effort; failures never affect the transfer outcome.
type Notifier interface {
	NotifyTransfer(ctx context.Context, notice TransferNotice) error
}

// LoggerNotifier is a stub implementation that writes notices to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// NotifyTransfer writes the notice to the structured logger.
func (n *LoggerNotifier) NotifyTransfer(_ context.Context, notice TransferNotice) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("transfer notification",
		"kind", notice.Kind,
		"amount", notice.Amount,
		"sender", notice.SenderName,
		"sender_phone", notice.SenderPhone,
		"recipient", notice.RecipientName,
		"recipient_phone", notice.RecipientPhone,
	)
	return nil
}
