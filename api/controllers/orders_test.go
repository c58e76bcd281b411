package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/quansahdev/datamart-backend/api/middleware"
	"github.com/quansahdev/datamart-backend/internal/orders"
	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/logger"
	"github.com/quansahdev/datamart-backend/pkg/money"
	"github.com/quansahdev/datamart-backend/pkg/pagination"
	"github.com/quansahdev/datamart-backend/pkg/paystack"
)

type stubOrdersService struct {
	built []orders.BuildInput
	txn   *models.Transaction
	err   error
}

func (s *stubOrdersService) Build(ctx context.Context, input orders.BuildInput) (*models.Transaction, error) {
	s.built = append(s.built, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.txn, nil
}

func (s *stubOrdersService) CreateTopup(ctx context.Context, input orders.TopupInput) (*models.Transaction, error) {
	return s.txn, s.err
}

func (s *stubOrdersService) CreateActivation(ctx context.Context, input orders.ActivationInput) (*models.Transaction, error) {
	return s.txn, s.err
}

func (s *stubOrdersService) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	if s.txn != nil && s.txn.Reference == reference {
		return s.txn, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
}

func (s *stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.TransactionPage, error) {
	var txns []models.Transaction
	if s.txn != nil {
		txns = append(txns, *s.txn)
	}
	return &orders.TransactionPage{Transactions: txns}, nil
}

type stubPaymentsService struct {
	walletPaid  []string
	initialized []string
}

func (s *stubPaymentsService) PayWithWallet(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error) {
	s.walletPaid = append(s.walletPaid, reference)
	return &models.Transaction{Reference: reference, Status: enums.OrderStatusCompleted}, nil
}

func (s *stubPaymentsService) InitializeGateway(ctx context.Context, reference string) (*paystack.Authorization, error) {
	s.initialized = append(s.initialized, reference)
	return &paystack.Authorization{AuthorizationURL: "https://checkout.example/" + reference, Reference: reference}, nil
}

func (s *stubPaymentsService) Verify(ctx context.Context, reference string) (*models.Transaction, error) {
	return &models.Transaction{Reference: reference}, nil
}

func (s *stubPaymentsService) HandleWebhook(ctx context.Context, event paystack.WebhookEvent) error {
	return nil
}

func pendingOrder() *models.Transaction {
	return &models.Transaction{
		ID:            uuid.New(),
		Reference:     "DM-ORDER00001",
		Type:          enums.TransactionTypeDataBundle,
		Amount:        money.MustParse("3.50"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodGateway,
		CustomerPhone: "0241234567",
	}
}

func TestCreateOrderGuestGatewayFlow(t *testing.T) {
	ordersSvc := &stubOrdersService{txn: pendingOrder()}
	paymentsSvc := &stubPaymentsService{}
	handler := CreateOrder(ordersSvc, paymentsSvc, logger.New(logger.Options{ServiceName: "test"}))

	body := `{
		"product_id": "` + uuid.NewString() + `",
		"recipient_phone": "0241234567",
		"customer_phone": "0241234567",
		"payment_method": "gateway"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ordersSvc.built) != 1 {
		t.Fatalf("expected one build call")
	}
	if ordersSvc.built[0].Role != enums.RoleGuest {
		t.Fatalf("guest request must price as guest, got %s", ordersSvc.built[0].Role)
	}
	if len(paymentsSvc.initialized) != 1 {
		t.Fatalf("gateway order must initialize a charge")
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AuthorizationURL == "" {
		t.Fatalf("gateway order must return a checkout url")
	}
}

func TestCreateOrderWalletFlowSettlesInline(t *testing.T) {
	txn := pendingOrder()
	txn.PaymentMethod = enums.PaymentMethodWallet
	ordersSvc := &stubOrdersService{txn: txn}
	paymentsSvc := &stubPaymentsService{}
	handler := CreateOrder(ordersSvc, paymentsSvc, logger.New(logger.Options{ServiceName: "test"}))

	userID := uuid.New()
	body := `{
		"product_id": "` + uuid.NewString() + `",
		"recipient_phone": "0241234567",
		"customer_phone": "0241234567",
		"payment_method": "wallet"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{
		UserID: userID,
		Role:   enums.RoleUser,
	}))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(paymentsSvc.walletPaid) != 1 {
		t.Fatalf("wallet order must settle inline")
	}
	if len(paymentsSvc.initialized) != 0 {
		t.Fatalf("wallet order must not touch the gateway")
	}
	if ordersSvc.built[0].UserID == nil || *ordersSvc.built[0].UserID != userID {
		t.Fatalf("authed order must carry the caller's user id")
	}
}

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	handler := CreateOrder(&stubOrdersService{txn: pendingOrder()}, &stubPaymentsService{}, logger.New(logger.Options{ServiceName: "test"}))

	body := `{
		"product_id": "` + uuid.NewString() + `",
		"recipient_phone": "0241234567",
		"customer_phone": "0241234567",
		"payment_method": "cash"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBulkOrderRequiresMultipleRecipients(t *testing.T) {
	handler := CreateBulkOrder(&stubOrdersService{txn: pendingOrder()}, &stubPaymentsService{}, logger.New(logger.Options{ServiceName: "test"}))

	body := `{
		"product_id": "` + uuid.NewString() + `",
		"recipients": ["0241234567"],
		"customer_phone": "0241234567",
		"payment_method": "gateway"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/bulk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetOrderByReference(t *testing.T) {
	txn := pendingOrder()
	handler := GetOrder(&stubOrdersService{txn: txn}, logger.New(logger.Options{ServiceName: "test"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+txn.Reference, nil)
	req = withURLParam(req, "reference", txn.Reference)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data transactionView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Reference != txn.Reference {
		t.Fatalf("expected reference %s, got %s", txn.Reference, envelope.Data.Reference)
	}
}
