package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type stubWalletRepo struct {
	credited map[uuid.UUID]money.Amount
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) wallet.Repository { return s }

func (s *stubWalletRepo) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) FindProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) EnsureProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	return &models.ProfitWallet{UserID: userID}, nil
}

func (s *stubWalletRepo) DebitWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) CreditWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	panic("not implemented")
}

func (s *stubWalletRepo) CreditProfit(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	if s.credited == nil {
		s.credited = make(map[uuid.UUID]money.Amount)
	}
	s.credited[userID] += amount
	return nil
}

func (s *stubWalletRepo) DebitProfitAvailable(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	panic("not implemented")
}

type stubRecorder struct {
	records []*models.Transaction
}

func (s *stubRecorder) CreateTransaction(ctx context.Context, tx *gorm.DB, txn *models.Transaction) (*models.Transaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.records = append(s.records, txn)
	return txn, nil
}

type stubMinter struct{}

func (stubMinter) Next() string { return "DM-ADMINREV001" }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func attributedSale(agentID uuid.UUID) *models.Transaction {
	return &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-SALE000001",
		Type:          enums.TransactionTypeDataBundle,
		Amount:        money.MustParse("3.15"),
		AgentProfit:   money.MustParse("0.35"),
		PaymentMethod: enums.PaymentMethodGateway,
		AgentID:       &agentID,
		CustomerPhone: "0241234567",
		Items: []models.OrderItem{
			{
				RecipientPhone: "0241234567",
				UnitPrice:      money.MustParse("3.15"),
				BaseCost:       money.MustParse("2.80"),
			},
		},
	}
}

func TestSettleSplitsProfitAndAdminRevenue(t *testing.T) {
	agentID := uuid.New()
	wallets := &stubWalletRepo{}
	recorder := &stubRecorder{}
	svc, err := NewService(wallets, recorder, stubMinter{}, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.Settle(context.Background(), nil, attributedSale(agentID)); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if wallets.credited[agentID] != money.MustParse("0.35") {
		t.Fatalf("expected agent credit 0.35, got %s", wallets.credited[agentID])
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one admin revenue record, got %d", len(recorder.records))
	}
	record := recorder.records[0]
	if record.Type != enums.TransactionTypeAdminRevenue {
		t.Fatalf("expected admin_revenue record, got %s", record.Type)
	}
	if record.Amount != money.MustParse("2.80") {
		t.Fatalf("expected admin revenue 2.80, got %s", record.Amount)
	}
}

func TestSettleAbortsOnDriftedSplit(t *testing.T) {
	agentID := uuid.New()
	wallets := &stubWalletRepo{}
	recorder := &stubRecorder{}
	svc, _ := NewService(wallets, recorder, stubMinter{}, testLogger())

	txn := attributedSale(agentID)
	txn.AgentProfit = money.MustParse("0.50") // drifted from the item snapshot

	err := svc.Settle(context.Background(), nil, txn)
	if !pkgerrors.HasCode(err, pkgerrors.CodeAccountingMismatch) {
		t.Fatalf("expected ACCOUNTING_MISMATCH, got %v", err)
	}
	if len(wallets.credited) != 0 {
		t.Fatalf("no credit may happen on mismatch")
	}
	if len(recorder.records) != 0 {
		t.Fatalf("no admin revenue record may be written on mismatch")
	}
}

func TestSettleUnattributedSaleCreditsNothing(t *testing.T) {
	wallets := &stubWalletRepo{}
	recorder := &stubRecorder{}
	svc, _ := NewService(wallets, recorder, stubMinter{}, testLogger())

	txn := &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-SALE000002",
		Type:          enums.TransactionTypeDataBundle,
		Amount:        money.MustParse("3.50"),
		AgentProfit:   0,
		PaymentMethod: enums.PaymentMethodGateway,
		CustomerPhone: "0241234567",
		Items: []models.OrderItem{
			{
				RecipientPhone: "0241234567",
				UnitPrice:      money.MustParse("3.50"),
				BaseCost:       money.MustParse("3.50"),
			},
		},
	}
	if err := svc.Settle(context.Background(), nil, txn); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if len(wallets.credited) != 0 {
		t.Fatalf("unattributed sale must not credit a profit wallet")
	}
	if len(recorder.records) != 1 || recorder.records[0].Amount != money.MustParse("3.50") {
		t.Fatalf("full amount must land as admin revenue")
	}
}
