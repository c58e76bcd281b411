package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quansahdev/datamart-backend/pkg/db/models"
	"github.com/quansahdev/datamart-backend/pkg/money"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) FindProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	var w models.ProfitWallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w, err := r.FindWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := &models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) EnsureProfitWallet(ctx context.Context, userID uuid.UUID) (*models.ProfitWallet, error) {
	w, err := r.FindProfitWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := &models.ProfitWallet{UserID: userID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// DebitWallet is the Path A balance guard: the predicate and the subtraction
// happen in one statement, so a concurrent debit can never overdraw.
func (r *repository) DebitWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET balance = balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND balance >= ?
	`, int64(amount), userID, int64(amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreditWallet(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET balance = balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, int64(amount), userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreditProfit(ctx context.Context, userID uuid.UUID, amount money.Amount) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profit_wallets
		SET available_balance = available_balance + ?,
			total_earned = total_earned + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, int64(amount), int64(amount), userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DebitProfitAvailable backs the approved→paid withdrawal transition, the
// only point where profit leaves the wallet.
func (r *repository) DebitProfitAvailable(ctx context.Context, userID uuid.UUID, amount money.Amount) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profit_wallets
		SET available_balance = available_balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND available_balance >= ?
	`, int64(amount), userID, int64(amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
