package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/enums"
	pkgerrors "github.com/quansahdev/datamart-backend/pkg/errors"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type stubPricingRepo struct {
	product    *models.Product
	floors     map[enums.PrincipalRole]*models.RoleBasePrice
	overrides  map[uuid.UUID]*models.PriceOverride
	savedFloor *models.RoleBasePrice
	savedOvr   *models.PriceOverride
}

func (s *stubPricingRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPricingRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.product == nil || s.product.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.product, nil
}

func (s *stubPricingRepo) FindRoleBasePrice(ctx context.Context, productID uuid.UUID, role enums.PrincipalRole) (*models.RoleBasePrice, error) {
	if row, ok := s.floors[role]; ok && row.ProductID == productID {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPricingRepo) FindPriceOverride(ctx context.Context, productID, principalID uuid.UUID) (*models.PriceOverride, error) {
	if row, ok := s.overrides[principalID]; ok && row.ProductID == productID {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPricingRepo) UpsertRoleBasePrice(ctx context.Context, row *models.RoleBasePrice) error {
	s.savedFloor = row
	return nil
}

func (s *stubPricingRepo) UpsertPriceOverride(ctx context.Context, row *models.PriceOverride) error {
	s.savedOvr = row
	return nil
}

func newTestProduct() *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		Name:         "MTN 1GB",
		Type:         enums.ProductTypeDataBundle,
		DefaultPrice: money.MustParse("6.00"),
		Active:       true,
	}
}

func TestResolveGuestAlwaysPaysDefault(t *testing.T) {
	product := newTestProduct()
	repo := &stubPricingRepo{
		product: product,
		floors: map[enums.PrincipalRole]*models.RoleBasePrice{
			enums.RoleAgent: {ProductID: product.ID, Role: enums.RoleAgent, BasePrice: money.MustParse("4.50")},
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	quote, err := svc.Resolve(context.Background(), product.ID, enums.RoleGuest, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.Selling != money.MustParse("6.00") {
		t.Fatalf("expected default price 6.00, got %s", quote.Selling)
	}
	if quote.Margin != 0 {
		t.Fatalf("expected zero margin for guest, got %s", quote.Margin)
	}
}

func TestResolveOverrideTakesPrecedenceOverFloor(t *testing.T) {
	product := newTestProduct()
	principalID := uuid.New()
	repo := &stubPricingRepo{
		product: product,
		floors: map[enums.PrincipalRole]*models.RoleBasePrice{
			enums.RoleAgent: {ProductID: product.ID, Role: enums.RoleAgent, BasePrice: money.MustParse("4.50")},
		},
		overrides: map[uuid.UUID]*models.PriceOverride{
			principalID: {ProductID: product.ID, PrincipalID: principalID, SellingPrice: money.MustParse("5.25")},
		},
	}
	svc, _ := NewService(repo)

	quote, err := svc.Resolve(context.Background(), product.ID, enums.RoleAgent, &principalID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.Selling != money.MustParse("5.25") {
		t.Fatalf("expected override price 5.25, got %s", quote.Selling)
	}
	if quote.BaseCost != money.MustParse("4.50") {
		t.Fatalf("expected base cost 4.50, got %s", quote.BaseCost)
	}
	if quote.Margin != money.MustParse("0.75") {
		t.Fatalf("expected margin 0.75, got %s", quote.Margin)
	}
	if !quote.FromOwner {
		t.Fatalf("expected FromOwner to be set")
	}
}

func TestResolveFloorFallsBackToDefault(t *testing.T) {
	product := newTestProduct()
	repo := &stubPricingRepo{product: product}
	svc, _ := NewService(repo)

	quote, err := svc.Resolve(context.Background(), product.ID, enums.RoleDealer, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.Selling != product.DefaultPrice || quote.BaseCost != product.DefaultPrice {
		t.Fatalf("expected default price for both selling and base, got %s / %s", quote.Selling, quote.BaseCost)
	}
}

func TestResolveMarginNeverNegative(t *testing.T) {
	product := newTestProduct()
	principalID := uuid.New()
	repo := &stubPricingRepo{
		product: product,
		floors: map[enums.PrincipalRole]*models.RoleBasePrice{
			enums.RoleAgent: {ProductID: product.ID, Role: enums.RoleAgent, BasePrice: money.MustParse("4.50")},
		},
		overrides: map[uuid.UUID]*models.PriceOverride{
			// undercuts the floor
			principalID: {ProductID: product.ID, PrincipalID: principalID, SellingPrice: money.MustParse("4.00")},
		},
	}
	svc, _ := NewService(repo)

	quote, err := svc.Resolve(context.Background(), product.ID, enums.RoleAgent, &principalID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.Margin != 0 {
		t.Fatalf("expected clamped zero margin, got %s", quote.Margin)
	}
	if quote.Selling != money.MustParse("4.00") {
		t.Fatalf("selling price should keep the override value, got %s", quote.Selling)
	}
}

func TestResolveInactiveProductNotFound(t *testing.T) {
	product := newTestProduct()
	product.Active = false
	repo := &stubPricingRepo{product: product}
	svc, _ := NewService(repo)

	_, err := svc.Resolve(context.Background(), product.ID, enums.RoleUser, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected PRODUCT_NOT_FOUND, got %v", err)
	}
}

func TestSetPriceOverrideRequiresResellerRole(t *testing.T) {
	product := newTestProduct()
	repo := &stubPricingRepo{product: product}
	svc, _ := NewService(repo)

	err := svc.SetPriceOverride(context.Background(), product.ID, uuid.New(), enums.RoleUser, money.MustParse("5.00"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-reseller, got %v", err)
	}

	err = svc.SetPriceOverride(context.Background(), product.ID, uuid.New(), enums.RoleAgent, money.MustParse("5.00"))
	if err != nil {
		t.Fatalf("expected agent override to succeed, got %v", err)
	}
	if repo.savedOvr == nil || repo.savedOvr.SellingPrice != money.MustParse("5.00") {
		t.Fatalf("override row not persisted")
	}
}
