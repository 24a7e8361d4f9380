package entitlements

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avishkar-academy/vault/app/models"
)

// Ledger is the append-only store of entitlements.
type Ledger interface {
	// Insert stores e unless an entitlement for the same gateway payment id
	// exists. It returns the stored row and whether this call created it.
	Insert(ctx context.Context, e *models.Entitlement) (*models.Entitlement, bool, error)
	// FindLatest returns the most recently granted entitlement for the pair,
	// or nil when none exists.
	FindLatest(ctx context.Context, userID, itemID string) (*models.Entitlement, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Entitlement, error)
	ListByUser(ctx context.Context, userID string) ([]models.Entitlement, error)
	List(ctx context.Context, offset, limit int) ([]models.Entitlement, int64, error)
	WithTx(tx *gorm.DB) Ledger
}

type gormLedger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) WithTx(tx *gorm.DB) Ledger {
	return &gormLedger{db: tx}
}

func (l *gormLedger) Insert(ctx context.Context, e *models.Entitlement) (*models.Entitlement, bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "gateway_payment_id"}}, DoNothing: true}).
		Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return e, true, nil
	}

	existing, err := l.FindByPaymentID(ctx, e.GatewayPaymentID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("entitlement insert ignored but no row found")
	}
	return existing, false, nil
}

func (l *gormLedger) FindLatest(ctx context.Context, userID, itemID string) (*models.Entitlement, error) {
	var e models.Entitlement
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND catalog_item_id = ?", userID, itemID).
		Order("granted_at DESC").Order("id DESC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (l *gormLedger) FindByPaymentID(ctx context.Context, paymentID string) (*models.Entitlement, error) {
	var e models.Entitlement
	err := l.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (l *gormLedger) ListByUser(ctx context.Context, userID string) ([]models.Entitlement, error) {
	var out []models.Entitlement
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (l *gormLedger) List(ctx context.Context, offset, limit int) ([]models.Entitlement, int64, error) {
	var total int64
	if err := l.db.WithContext(ctx).Model(&models.Entitlement{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Entitlement
	err := l.db.WithContext(ctx).
		Order("granted_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, total, err
}
