package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/kazi-pay/kazi_pay/internal/logging"
	"github.com/kazi-pay/kazi_pay/internal/mpesa"
	"github.com/kazi-pay/kazi_pay/internal/notification"
	"github.com/kazi-pay/kazi_pay/internal/transaction"
	"github.com/kazi-pay/kazi_pay/internal/wallet"
)

type testNotifier struct {
	last notification.TransferNotice
	sent int
}

func (n *testNotifier) NotifyTransfer(_ context.Context, notice notification.TransferNotice) error {
	n.last = notice
	n.sent++
	return nil
}

// flakyWalletRepo makes credits fail for selected wallets so compensation
// paths can be exercised.
type flakyWalletRepo struct {
	wallet.Repository
	failCreditFor map[string]bool
}

func (r *flakyWalletRepo) Adjust(ctx context.Context, id string, delta int64) (int64, error) {
	if delta > 0 && r.failCreditFor[id] {
		return 0, errors.New("storage unavailable")
	}
	return r.Repository.Adjust(ctx, id, delta)
}

type fixture struct {
	svc      *Service
	wallets  *wallet.Service
	seedRepo wallet.Repository
	txSvc    *transaction.Service
	gateway  *mpesa.ScriptedGateway
	notifier *testNotifier
}

// newFixture wires the orchestrator onto walletRepo; seedRepo must be the
// underlying memory repository so balances can be seeded directly.
func newFixture(walletRepo, seedRepo wallet.Repository) *fixture {
	txSvc := transaction.NewService(transaction.NewMemoryRepository())
	wallets := wallet.NewService(walletRepo)
	gateway := &mpesa.ScriptedGateway{}
	notifier := &testNotifier{}
	svc := NewService(wallets, txSvc, gateway, notifier, logging.Discard())
	return &fixture{svc: svc, wallets: wallets, seedRepo: seedRepo, txSvc: txSvc, gateway: gateway, notifier: notifier}
}

func newMemoryFixture() *fixture {
	repo := wallet.NewMemoryRepository()
	return newFixture(repo, repo)
}

func (f *fixture) newWallet(t *testing.T, name, phone string, balance int64) wallet.Wallet {
	t.Helper()
	w, err := f.wallets.Create(context.Background(), wallet.CreateInput{HolderName: name, Phone: phone})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if balance > 0 {
		wallet.SeedBalance(f.seedRepo, w.ID, balance)
	}
	return w
}

func (f *fixture) recordFor(t *testing.T, reference string) transaction.Transaction {
	t.Helper()
	tx, err := f.txSvc.GetByReference(context.Background(), reference)
	if err != nil {
		t.Fatalf("get record %s: %v", reference, err)
	}
	return tx
}

func TestWalletToWalletSuccess(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()

	a := f.newWallet(t, "Achieng", "254712000001", 5_000)
	b := f.newWallet(t, "Brian", "254712000002", 200)

	res, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID:    a.ID,
		RecipientWalletID: b.ID,
		Amount:            1_000,
		Description:       "lunch money",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if res.SenderBalance != 4_000 || res.RecipientBalance != 1_200 {
		t.Fatalf("unexpected balances: %+v", res)
	}

	// Conservation: the pair's total is unchanged.
	if res.SenderBalance+res.RecipientBalance != 5_200 {
		t.Fatalf("funds not conserved: %d", res.SenderBalance+res.RecipientBalance)
	}

	record := f.recordFor(t, res.Reference)
	if record.Type != transaction.TypeTransferToWallet || record.Status != transaction.StatusCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}

	if f.notifier.sent != 1 || f.notifier.last.Kind != notification.KindWalletTransfer {
		t.Fatalf("expected one wallet transfer notice, got %+v", f.notifier.last)
	}
	if f.notifier.last.SenderBalance != 4_000 || f.notifier.last.RecipientPhone != "254712000002" {
		t.Fatalf("notice carries wrong details: %+v", f.notifier.last)
	}
}

func TestWalletToWalletInsufficientFundsLeavesFailedRecord(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()

	a := f.newWallet(t, "Achieng", "254712000001", 50)
	b := f.newWallet(t, "Brian", "254712000002", 0)

	_, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID:    a.ID,
		RecipientWalletID: b.ID,
		Amount:            1_000,
	})
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Balances untouched.
	balA, _ := f.wallets.Balance(ctx, a.ID)
	balB, _ := f.wallets.Balance(ctx, b.ID)
	if balA.Amount != 50 || balB.Amount != 0 {
		t.Fatalf("balances changed: %d/%d", balA.Amount, balB.Amount)
	}

	// The intent is still on record, marked failed.
	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 1 || records[0].Status != transaction.StatusFailed {
		t.Fatalf("expected one failed record, got %+v", records)
	}
	if records[0].AdminRemarks == "" {
		t.Fatal("expected failure cause in remarks")
	}
}

func TestWalletToWalletRejectsSelfAndBadAmount(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 5_000)

	if _, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID: a.ID, RecipientWalletID: a.ID, Amount: 100,
	}); !errors.Is(err, transaction.ErrValidation) {
		t.Fatalf("expected validation error for self transfer, got %v", err)
	}

	b := f.newWallet(t, "Brian", "254712000002", 0)
	if _, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID: a.ID, RecipientWalletID: b.ID, Amount: 0,
	}); !errors.Is(err, transaction.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	// Validation failures never write records.
	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestWalletToWalletMissingRecipient(t *testing.T) {
	f := newMemoryFixture()
	a := f.newWallet(t, "Achieng", "254712000001", 5_000)

	_, err := f.svc.WalletToWallet(context.Background(), WalletTransferInput{
		SenderWalletID: a.ID, RecipientWalletID: uuid.NewString(), Amount: 100,
	})
	if !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWalletToWalletCompensatesFailedCredit(t *testing.T) {
	inner := wallet.NewMemoryRepository()
	flaky := &flakyWalletRepo{Repository: inner, failCreditFor: map[string]bool{}}
	f := newFixture(flaky, inner)
	ctx := context.Background()

	a := f.newWallet(t, "Achieng", "254712000001", 5_000)
	b := f.newWallet(t, "Brian", "254712000002", 0)
	flaky.failCreditFor[b.ID] = true

	_, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID: a.ID, RecipientWalletID: b.ID, Amount: 1_000,
	})
	if err == nil || errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected plain credit failure after successful reversal, got %v", err)
	}

	// Sender got the money back.
	balA, _ := f.wallets.Balance(ctx, a.ID)
	if balA.Amount != 5_000 {
		t.Fatalf("expected reversal to restore 5000, got %d", balA.Amount)
	}

	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 1 || records[0].Status != transaction.StatusFailed {
		t.Fatalf("expected failed record, got %+v", records)
	}
}

func TestWalletToWalletReconciliationFailure(t *testing.T) {
	inner := wallet.NewMemoryRepository()
	flaky := &flakyWalletRepo{Repository: inner, failCreditFor: map[string]bool{}}
	f := newFixture(flaky, inner)
	ctx := context.Background()

	a := f.newWallet(t, "Achieng", "254712000001", 5_000)
	b := f.newWallet(t, "Brian", "254712000002", 0)
	// Both the recipient credit and the compensating sender credit fail.
	flaky.failCreditFor[a.ID] = true
	flaky.failCreditFor[b.ID] = true

	_, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
		SenderWalletID: a.ID, RecipientWalletID: b.ID, Amount: 1_000,
	})
	if !errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected reconciliation error, got %v", err)
	}

	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 1 || records[0].Status != transaction.StatusFailed {
		t.Fatalf("expected failed record, got %+v", records)
	}
}

func TestWalletToMpesaReservesBeforeGatewayCall(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 3_000)

	res, err := f.svc.WalletToMpesa(ctx, WithdrawalInput{
		WalletID: a.ID, Phone: "254712345678", Amount: 1_200,
	})
	if err != nil {
		t.Fatalf("withdrawal: %v", err)
	}

	if res.SenderBalance != 1_800 {
		t.Fatalf("expected balance 1800, got %d", res.SenderBalance)
	}
	if len(f.gateway.Calls) != 1 || f.gateway.Calls[0].Op != "disburse" {
		t.Fatalf("expected one disbursement call, got %+v", f.gateway.Calls)
	}

	record := f.recordFor(t, res.Reference)
	if record.Type != transaction.TypeWithdrawal || record.Status != transaction.StatusCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestWalletToMpesaGatewayFailureRefunds(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 3_000)
	f.gateway.DisburseErr = fmt.Errorf("%w: timeout", mpesa.ErrGateway)

	_, err := f.svc.WalletToMpesa(ctx, WithdrawalInput{
		WalletID: a.ID, Phone: "254712345678", Amount: 1_200,
	})
	if !errors.Is(err, mpesa.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	// The reservation was refunded.
	bal, _ := f.wallets.Balance(ctx, a.ID)
	if bal.Amount != 3_000 {
		t.Fatalf("expected refunded balance 3000, got %d", bal.Amount)
	}

	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 1 || records[0].Status != transaction.StatusFailed {
		t.Fatalf("expected failed record, got %+v", records)
	}
}

func TestWalletToMpesaInsufficientFundsSkipsGateway(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 500)

	_, err := f.svc.WalletToMpesa(ctx, WithdrawalInput{
		WalletID: a.ID, Phone: "254712345678", Amount: 1_200,
	})
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(f.gateway.Calls) != 0 {
		t.Fatalf("gateway must not be called when the reserve fails: %+v", f.gateway.Calls)
	}
}

func TestWalletToMpesaRejectsLocalPhoneFormat(t *testing.T) {
	f := newMemoryFixture()
	a := f.newWallet(t, "Achieng", "254712000001", 3_000)

	_, err := f.svc.WalletToMpesa(context.Background(), WithdrawalInput{
		WalletID: a.ID, Phone: "0712345678", Amount: 100,
	})
	if !errors.Is(err, transaction.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.gateway.Calls) != 0 {
		t.Fatal("gateway must not be called for invalid phone")
	}
}

func TestMpesaToWalletOnlyInitiates(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 100)

	ack, err := f.svc.MpesaToWallet(ctx, CollectionInput{
		WalletID: a.ID, Phone: "254712345678", Amount: 2_000,
	})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	if ack.Status != mpesa.StatusAccepted {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	// No synchronous balance change and no record yet.
	bal, _ := f.wallets.Balance(ctx, a.ID)
	if bal.Amount != 100 {
		t.Fatalf("collection must not credit synchronously, balance %d", bal.Amount)
	}
	records, _ := f.txSvc.ListByWallet(ctx, a.ID)
	if len(records) != 0 {
		t.Fatalf("expected no records before confirmation, got %d", len(records))
	}
}

func TestConfirmCollectionCreditsWallet(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 100)

	res, err := f.svc.ConfirmCollection(ctx, ConfirmationInput{
		WalletID: a.ID, Amount: 2_000, GatewayReference: "MPE987",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if res.RecipientBalance != 2_100 {
		t.Fatalf("expected balance 2100, got %d", res.RecipientBalance)
	}
	record := f.recordFor(t, res.Reference)
	if record.Type != transaction.TypeReceiveFromMpesa || record.Status != transaction.StatusCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestAdvanceToWalletCredits(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	a := f.newWallet(t, "Achieng", "254712000001", 0)

	res, err := f.svc.AdvanceToWallet(ctx, AdvanceInput{
		WalletID: a.ID, Amount: 15_000, Reference: "ADV-88",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.RecipientBalance != 15_000 {
		t.Fatalf("expected balance 15000, got %d", res.RecipientBalance)
	}
	record := f.recordFor(t, res.Reference)
	if record.Type != transaction.TypeReceiveFromAdvance || record.Status != transaction.StatusCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}
	if f.notifier.last.Kind != notification.KindAdvanceCredit {
		t.Fatalf("expected advance notice, got %+v", f.notifier.last)
	}
}

func TestConcurrentTransfersExhaustBalanceExactly(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()

	a := f.newWallet(t, "Achieng", "254712000001", 3_000)
	b := f.newWallet(t, "Brian", "254712000002", 0)

	const workers = 10
	const amount = int64(1_000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.WalletToWallet(ctx, WalletTransferInput{
				SenderWalletID: a.ID, RecipientWalletID: b.ID, Amount: amount,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, wallet.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Fatalf("expected exactly 3 transfers to fit in the balance, got %d", succeeded)
	}

	balA, _ := f.wallets.Balance(ctx, a.ID)
	balB, _ := f.wallets.Balance(ctx, b.ID)
	if balA.Amount != 0 || balB.Amount != 3_000 {
		t.Fatalf("unexpected final balances: %d/%d", balA.Amount, balB.Amount)
	}
	if balA.Amount < 0 {
		t.Fatal("sender balance went negative")
	}
}
