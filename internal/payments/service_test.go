package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/internal/fulfillment"
	"github.com/quansahdev/datamart-backend/internal/wallet"
	"github.com/quansahdev/datamart-backend/pkg/config"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/idempotency"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
)

type stubPaymentsRepo struct {
	txns map[string]*models.Transaction

	claimDenied      bool
	claims           int
	completed        []uuid.UUID
	delivered        []uuid.UUID
	dispatchFailures []string
	statusUpdates    []enums.PaymentStatus
}

func newStubPaymentsRepo(txns ...*models.Transaction) *stubPaymentsRepo {
	byRef := make(map[string]*models.Transaction)
	for _, txn := range txns {
		byRef[txn.Reference] = txn
	}
	return &stubPaymentsRepo{txns: byRef}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, ok := s.txns[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *stubPaymentsRepo) ClaimForSettlement(ctx context.Context, reference string, gatewayRef *string) (bool, error) {
	txn, ok := s.txns[reference]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if s.claimDenied || txn.Status.IsTerminal() {
		return false, nil
	}
	s.claims++
	txn.Status = enums.OrderStatusConfirmed
	txn.PaymentStatus = enums.PaymentStatusPaid
	if gatewayRef != nil {
		txn.PaymentReference = gatewayRef
	}
	return true, nil
}

func (s *stubPaymentsRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	s.completed = append(s.completed, id)
	for _, txn := range s.txns {
		if txn.ID == id {
			txn.Status = enums.OrderStatusCompleted
		}
	}
	return nil
}

func (s *stubPaymentsRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	s.delivered = append(s.delivered, id)
	for _, txn := range s.txns {
		if txn.ID == id {
			txn.Status = enums.OrderStatusDelivered
		}
	}
	return nil
}

func (s *stubPaymentsRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, reason *string) error {
	s.statusUpdates = append(s.statusUpdates, status)
	for _, txn := range s.txns {
		if txn.ID == id {
			txn.PaymentStatus = status
			txn.FailureReason = reason
		}
	}
	return nil
}

func (s *stubPaymentsRepo) RecordDispatchFailure(ctx context.Context, id uuid.UUID, reason string) error {
	s.dispatchFailures = append(s.dispatchFailures, reason)
	return nil
}

type stubWalletRepo struct {
	balances map[uuid.UUID]money.Amount
	topups   map[uuid.UUID]money.Amount
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) wallet.Repository { return s }

func (s *stubWalletRepo) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{UserID: userID, Balance: s.balances[userID]}, nil
}

func (s *stubWalletRepo) FindProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{UserID: userID, Balance: s.balances[userID]}, nil
}

func (s *stubWalletRepo) EnsureProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	panic("not implemented")
}

func (s *stubWalletRepo) DebitWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	if s.balances[userID] < amount {
		return false, nil
	}
	s.balances[userID] -= amount
	return true, nil
}

func (s *stubWalletRepo) CreditWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	if s.balances == nil {
		s.balances = make(map[uuid.UUID]money.Amount)
	}
	if s.topups == nil {
		s.topups = make(map[uuid.UUID]money.Amount)
	}
	s.balances[userID] += amount
	s.topups[userID] += amount
	return nil
}

func (s *stubWalletRepo) CreditProfit(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	panic("not implemented")
}

func (s *stubWalletRepo) DebitProfitAvailable(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	panic("not implemented")
}

type stubCommission struct {
	settled []string
	err     error
}

func (s *stubCommission) Settle(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	if s.err != nil {
		return s.err
	}
	s.settled = append(s.settled, txn.Reference)
	return nil
}

type stubDispatcher struct {
	outcome    fulfillment.Outcome
	err        error
	dispatched []string
}

func (s *stubDispatcher) Dispatch(ctx context.Context, txn *models.Transaction) (*fulfillment.Outcome, error) {
	s.dispatched = append(s.dispatched, txn.Reference)
	if s.err != nil {
		return nil, s.err
	}
	outcome := s.outcome
	return &outcome, nil
}

type stubIdentity struct {
	promoted map[uuid.UUID]enums.PrincipalRole
}

func (s *stubIdentity) EffectiveRole(ctx context.Context, userID uuid.UUID, claimedRole enums.PrincipalRole) (enums.PrincipalRole, error) {
	return claimedRole, nil
}

func (s *stubIdentity) Promote(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role enums.PrincipalRole, promotedBy *uuid.UUID) error {
	if s.promoted == nil {
		s.promoted = make(map[uuid.UUID]enums.PrincipalRole)
	}
	s.promoted[userID] = role
	return nil
}

type stubGateway struct {
	verifyData  []*paystack.VerifyData
	verifyErrs  []error
	verifyCalls int
	initErr     error
	initialized []paystack.InitializeParams
}

func (s *stubGateway) Initialize(ctx context.Context, params paystack.InitializeParams) (*paystack.Authorization, error) {
	s.initialized = append(s.initialized, params)
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &paystack.Authorization{
		AuthorizationURL: "https://checkout.example/" + params.Reference,
		AccessCode:       "ACC123",
		Reference:        params.Reference,
	}, nil
}

func (s *stubGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyData, error) {
	i := s.verifyCalls
	s.verifyCalls++
	if i < len(s.verifyErrs) && s.verifyErrs[i] != nil {
		return nil, s.verifyErrs[i]
	}
	if len(s.verifyData) == 0 {
		return nil, fmt.Errorf("no verify data configured")
	}
	if i >= len(s.verifyData) {
		return s.verifyData[len(s.verifyData)-1], nil
	}
	return s.verifyData[i], nil
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func (s *stubGuard) CheckAndMark(ctx context.Context, consumer, eventID string) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	key := consumer + ":" + eventID
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubGuard) Delete(ctx context.Context, consumer, eventID string) error {
	s.deleted = append(s.deleted, consumer+":"+eventID)
	delete(s.seen, consumer+":"+eventID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	repo       *stubPaymentsRepo
	wallets    *stubWalletRepo
	commission *stubCommission
	dispatcher *stubDispatcher
	identity   *stubIdentity
	gateway    *stubGateway
	guard      *stubGuard
	svc        Service
}

func newFixture(t *testing.T, txns ...*models.Transaction) *fixture {
	t.Helper()
	f := &fixture{
		repo:       newStubPaymentsRepo(txns...),
		wallets:    &stubWalletRepo{balances: make(map[uuid.UUID]money.Amount)},
		commission: &stubCommission{},
		dispatcher: &stubDispatcher{outcome: fulfillment.Outcome{Status: enums.DeliveryStatusDelivered}},
		identity:   &stubIdentity{},
		gateway:    &stubGateway{},
		guard:      &stubGuard{},
	}
	cfg := config.PaymentsConfig{VerifyRetries: 2, VerifyBackoff: time.Millisecond}
	svc, err := NewService(
		f.repo, f.wallets, f.commission, f.dispatcher, f.identity,
		f.gateway, f.guard, stubTxRunner{}, cfg,
		logger.New(logger.Options{ServiceName: "test"}), nil,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func walletSale(userID uuid.UUID) *models.Transaction {
	return &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-WALLET0001",
		Type:          enums.TransactionTypeDataBundle,
		Amount:        money.MustParse("3.50"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodWallet,
		UserID:        &userID,
		CustomerPhone: "0241234567",
		Items: []models.OrderItem{
			{RecipientPhone: "0241234567", UnitPrice: money.MustParse("3.50"), BaseCost: money.MustParse("3.50")},
		},
	}
}

func gatewaySale() *models.Transaction {
	return &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-GATEWAY001",
		Type:          enums.TransactionTypeDataBundle,
		Amount:        money.MustParse("3.50"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		CustomerPhone: "0241234567",
		Items: []models.OrderItem{
			{RecipientPhone: "0241234567", UnitPrice: money.MustParse("3.50"), BaseCost: money.MustParse("3.50")},
		},
	}
}

func TestPayWithWalletSettlesAndDispatches(t *testing.T) {
	userID := uuid.New()
	txn := walletSale(userID)
	f := newFixture(t, txn)
	f.wallets.balances[userID] = money.MustParse("10.00")

	got, err := f.svc.PayWithWallet(context.Background(), txn.Reference, userID)
	if err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}
	if f.wallets.balances[userID] != money.MustParse("6.50") {
		t.Fatalf("expected balance 6.50 after debit, got %s", f.wallets.balances[userID])
	}
	if len(f.commission.settled) != 1 {
		t.Fatalf("expected one commission settle, got %d", len(f.commission.settled))
	}
	if len(f.dispatcher.dispatched) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(f.dispatcher.dispatched))
	}
	if got.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered after dispatch outcome, got %s", got.Status)
	}
}

func TestPayWithWalletInsufficientBalance(t *testing.T) {
	userID := uuid.New()
	txn := walletSale(userID)
	f := newFixture(t, txn)
	f.wallets.balances[userID] = money.MustParse("1.00")

	_, err := f.svc.PayWithWallet(context.Background(), txn.Reference, userID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if len(f.dispatcher.dispatched) != 0 {
		t.Fatalf("failed payment must not dispatch")
	}
	if len(f.repo.completed) != 0 {
		t.Fatalf("failed payment must not complete the transaction")
	}
	if len(f.repo.statusUpdates) != 1 || f.repo.statusUpdates[0] != enums.PaymentStatusFailed {
		t.Fatalf("expected payment marked failed, got %v", f.repo.statusUpdates)
	}
	got, _ := f.repo.FindByReference(context.Background(), txn.Reference)
	if got.FailureReason == nil || *got.FailureReason == "" {
		t.Fatalf("failed payment must carry a failure reason")
	}
}

func TestPayWithWalletLostClaimDoesNotDispatch(t *testing.T) {
	userID := uuid.New()
	txn := walletSale(userID)
	f := newFixture(t, txn)
	f.wallets.balances[userID] = money.MustParse("10.00")
	f.repo.claimDenied = true

	if _, err := f.svc.PayWithWallet(context.Background(), txn.Reference, userID); err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}
	if len(f.dispatcher.dispatched) != 0 {
		t.Fatalf("losing the settlement claim must not dispatch, got %d", len(f.dispatcher.dispatched))
	}
	if len(f.commission.settled) != 0 {
		t.Fatalf("losing the settlement claim must not settle commission")
	}
	if f.wallets.balances[userID] != money.MustParse("10.00") {
		t.Fatalf("losing the settlement claim must not debit, got %s", f.wallets.balances[userID])
	}
}

func TestPayWithWalletRejectsStorefrontAttribution(t *testing.T) {
	userID := uuid.New()
	agentID := uuid.New()
	txn := walletSale(userID)
	txn.AgentID = &agentID
	f := newFixture(t, txn)
	f.wallets.balances[userID] = money.MustParse("10.00")

	_, err := f.svc.PayWithWallet(context.Background(), txn.Reference, userID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if f.repo.claims != 0 {
		t.Fatalf("storefront transaction must not be claimed on the wallet path")
	}
}

func TestPayWithWalletRejectsForeignTransaction(t *testing.T) {
	owner := uuid.New()
	txn := walletSale(owner)
	f := newFixture(t, txn)

	_, err := f.svc.PayWithWallet(context.Background(), txn.Reference, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestVerifySuccessSettles(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	f.gateway.verifyData = []*paystack.VerifyData{{
		ID:              9021345,
		Status:          paystack.StatusSuccess,
		Reference:       txn.Reference,
		AmountMinor:     int64(txn.Amount),
		GatewayResponse: "Approved",
	}}

	got, err := f.svc.Verify(context.Background(), txn.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(f.commission.settled) != 1 {
		t.Fatalf("expected commission settle, got %d", len(f.commission.settled))
	}
	if len(f.dispatcher.dispatched) != 1 {
		t.Fatalf("expected dispatch after settlement")
	}
	if got.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", got.PaymentStatus)
	}
	if got.PaymentReference == nil || *got.PaymentReference != "9021345" {
		t.Fatalf("payment reference must be the gateway charge id, got %v", got.PaymentReference)
	}
}

func TestVerifyAbandonedCancelsPaymentOnly(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	f.gateway.verifyData = []*paystack.VerifyData{{
		Status:    paystack.StatusAbandoned,
		Reference: txn.Reference,
	}}

	got, err := f.svc.Verify(context.Background(), txn.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.PaymentStatus != enums.PaymentStatusCancelled {
		t.Fatalf("expected cancelled payment, got %s", got.PaymentStatus)
	}
	if got.Status != enums.OrderStatusPending {
		t.Fatalf("abandoned charge must leave order status pending, got %s", got.Status)
	}
	if len(f.dispatcher.dispatched) != 0 {
		t.Fatalf("abandoned charge must not dispatch")
	}
	if f.repo.claims != 0 {
		t.Fatalf("abandoned charge must not claim settlement")
	}
}

func TestVerifyRetriesTransientGatewayFailure(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	f.gateway.verifyErrs = []error{fmt.Errorf("connection reset")}
	f.gateway.verifyData = []*paystack.VerifyData{
		nil,
		{Status: paystack.StatusSuccess, Reference: txn.Reference, AmountMinor: int64(txn.Amount)},
	}

	if _, err := f.svc.Verify(context.Background(), txn.Reference); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if f.gateway.verifyCalls != 2 {
		t.Fatalf("expected 2 verify calls, got %d", f.gateway.verifyCalls)
	}
	if len(f.commission.settled) != 1 {
		t.Fatalf("expected settlement after retry")
	}
}

func TestVerifyTerminalShortCircuits(t *testing.T) {
	txn := gatewaySale()
	txn.Status = enums.OrderStatusCompleted
	txn.PaymentStatus = enums.PaymentStatusPaid
	f := newFixture(t, txn)

	got, err := f.svc.Verify(context.Background(), txn.Reference)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if f.gateway.verifyCalls != 0 {
		t.Fatalf("settled transaction must not hit the gateway")
	}
	if got.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected status %s", got.Status)
	}
}

func TestWebhookAfterVerifyIsNoOp(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	f.gateway.verifyData = []*paystack.VerifyData{{
		Status:      paystack.StatusSuccess,
		Reference:   txn.Reference,
		AmountMinor: int64(txn.Amount),
	}}

	if _, err := f.svc.Verify(context.Background(), txn.Reference); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount),
		},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if f.repo.claims != 1 {
		t.Fatalf("expected exactly one settlement claim, got %d", f.repo.claims)
	}
	if len(f.commission.settled) != 1 {
		t.Fatalf("expected exactly one commission settle, got %d", len(f.commission.settled))
	}
	if len(f.dispatcher.dispatched) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(f.dispatcher.dispatched))
	}
}

func TestWebhookReplayDropped(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount),
		},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook replay: %v", err)
	}

	if f.repo.claims != 1 {
		t.Fatalf("replayed event must not settle again, claims=%d", f.repo.claims)
	}
}

func TestWebhookChargeFailedMarksPayment(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeFailed,
		Data:  paystack.VerifyData{Reference: txn.Reference, Status: paystack.StatusFailed},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	got, _ := f.repo.FindByReference(context.Background(), txn.Reference)
	if got.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", got.PaymentStatus)
	}
	if got.Status != enums.OrderStatusPending {
		t.Fatalf("failed charge must leave order status pending, got %s", got.Status)
	}
}

func TestWebhookAmountMismatchFailsPayment(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount) - 100,
		},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if f.repo.claims != 0 {
		t.Fatalf("short-paid charge must not settle")
	}
	got, _ := f.repo.FindByReference(context.Background(), txn.Reference)
	if got.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", got.PaymentStatus)
	}
}

func TestTopupSettlementCreditsWallet(t *testing.T) {
	userID := uuid.New()
	txn := &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-TOPUP00001",
		Type:          enums.TransactionTypeWalletTopup,
		Amount:        money.MustParse("50.00"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		UserID:        &userID,
		CustomerPhone: "0241234567",
	}
	f := newFixture(t, txn)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount),
		},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if f.wallets.topups[userID] != money.MustParse("50.00") {
		t.Fatalf("expected topup credit 50.00, got %s", f.wallets.topups[userID])
	}
	if len(f.dispatcher.dispatched) != 0 {
		t.Fatalf("topup must not dispatch fulfillment")
	}
}

func TestActivationSettlementPromotesUser(t *testing.T) {
	userID := uuid.New()
	txn := &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-ACTIVATE01",
		Type:          enums.TransactionTypeAgentActivation,
		Amount:        money.MustParse("15.00"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		UserID:        &userID,
		CustomerPhone: "0241234567",
	}
	f := newFixture(t, txn)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount),
		},
	}
	if err := f.svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if f.identity.promoted[userID] != enums.RoleAgent {
		t.Fatalf("expected promotion to agent, got %s", f.identity.promoted[userID])
	}
}

func TestDispatchFailureKeepsPaymentFinal(t *testing.T) {
	userID := uuid.New()
	txn := walletSale(userID)
	f := newFixture(t, txn)
	f.wallets.balances[userID] = money.MustParse("10.00")
	f.dispatcher.err = fmt.Errorf("provider unreachable")

	got, err := f.svc.PayWithWallet(context.Background(), txn.Reference, userID)
	if err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}
	if got.Status != enums.OrderStatusCompleted {
		t.Fatalf("payment must stay completed on dispatch failure, got %s", got.Status)
	}
	if len(f.repo.dispatchFailures) != 1 {
		t.Fatalf("dispatch failure must be recorded")
	}
	if f.wallets.balances[userID] != money.MustParse("6.50") {
		t.Fatalf("debit must not be reverted, got %s", f.wallets.balances[userID])
	}
}

func TestInitializeGatewayUsesTransactionReference(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)

	auth, err := f.svc.InitializeGateway(context.Background(), txn.Reference)
	if err != nil {
		t.Fatalf("InitializeGateway: %v", err)
	}
	if auth.Reference != txn.Reference {
		t.Fatalf("charge reference must match transaction reference")
	}
	if len(f.gateway.initialized) != 1 {
		t.Fatalf("expected one initialize call")
	}
	params := f.gateway.initialized[0]
	if params.AmountMinor != int64(txn.Amount) {
		t.Fatalf("expected amount %d, got %d", int64(txn.Amount), params.AmountMinor)
	}
}

func TestInitializeGatewayRejectsWalletMethod(t *testing.T) {
	userID := uuid.New()
	txn := walletSale(userID)
	f := newFixture(t, txn)

	_, err := f.svc.InitializeGateway(context.Background(), txn.Reference)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestInitializeGatewayFailureMarksPayment(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	f.gateway.initErr = fmt.Errorf("gateway timeout")

	if _, err := f.svc.InitializeGateway(context.Background(), txn.Reference); err == nil {
		t.Fatal("expected error when the gateway rejects initialization")
	}
	got, _ := f.repo.FindByReference(context.Background(), txn.Reference)
	if got.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment after init failure, got %s", got.PaymentStatus)
	}
	if got.FailureReason == nil || *got.FailureReason == "" {
		t.Fatal("init failure must carry a failure reason")
	}
}

func TestVerifyGatewayUnavailableLeavesPaymentPending(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)
	connErr := fmt.Errorf("connection reset")
	f.gateway.verifyErrs = []error{connErr, connErr, connErr}

	got, err := f.svc.Verify(context.Background(), txn.Reference)
	if err != nil {
		t.Fatalf("an unreachable gateway is not a verdict on the charge: %v", err)
	}
	if f.gateway.verifyCalls != 3 {
		t.Fatalf("expected 3 verify attempts, got %d", f.gateway.verifyCalls)
	}
	if got.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment must stay pending for the webhook to settle, got %s", got.PaymentStatus)
	}
	if len(f.repo.statusUpdates) != 0 {
		t.Fatalf("verify exhaustion must not mark the payment, got %v", f.repo.statusUpdates)
	}
	if f.repo.claims != 0 {
		t.Fatal("verify exhaustion must not claim settlement")
	}
}

// memGuardStore is an in-process stand-in for the redis client backing the
// idempotency manager.
type memGuardStore struct {
	entries map[string]string
}

func (m *memGuardStore) Get(ctx context.Context, key string) (string, error) {
	return m.entries[key], nil
}

func (m *memGuardStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = "1"
	return true, nil
}

func (m *memGuardStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memGuardStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func TestWebhookSettlesOnceThroughIdempotencyManager(t *testing.T) {
	txn := gatewaySale()
	f := newFixture(t, txn)

	guard, err := idempotency.NewManager(&memGuardStore{}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := config.PaymentsConfig{VerifyRetries: 2, VerifyBackoff: time.Millisecond}
	svc, err := NewService(
		f.repo, f.wallets, f.commission, f.dispatcher, f.identity,
		f.gateway, guard, stubTxRunner{}, cfg,
		logger.New(logger.Options{ServiceName: "test"}), nil,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.VerifyData{
			Reference:   txn.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: int64(txn.Amount),
		},
	}
	if err := svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if f.repo.claims != 1 {
		t.Fatalf("first delivery must settle, claims=%d", f.repo.claims)
	}
	if len(f.commission.settled) != 1 {
		t.Fatalf("first delivery must settle commission once, got %d", len(f.commission.settled))
	}

	if err := svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook redelivery: %v", err)
	}
	if f.repo.claims != 1 {
		t.Fatalf("redelivery must be dropped by the guard, claims=%d", f.repo.claims)
	}
	if len(f.dispatcher.dispatched) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(f.dispatcher.dispatched))
	}
}
