package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatwise/booking/internal/model"
)

// PromoRepo reads promo codes and accounts their usage. Codes are
// stored upper-cased; callers normalize before lookup.
type PromoRepo struct {
	db *sql.DB
}

// NewPromoRepo returns a new PromoRepo bound to the given database.
func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

// GetByCode returns the promo code row, or (nil, nil) when the code
// does not exist. Existence and validity are separate concerns: the
// evaluator decides whether a returned code may be applied.
func (r *PromoRepo) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	const q = `SELECT id, code, discount_type, discount_value,
	                  min_purchase_cents, max_discount_cents,
	                  valid_from, valid_until, max_uses, use_count, is_active
	           FROM promo_codes WHERE code = ?`
	var pc model.PromoCode
	var maxDiscount sql.NullInt64
	var validFrom, validUntil sql.NullTime
	var maxUses sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&pc.ID, &pc.Code, &pc.DiscountType, &pc.DiscountValue,
		&pc.MinPurchaseCents, &maxDiscount,
		&validFrom, &validUntil, &maxUses, &pc.UseCount, &pc.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		v := maxDiscount.Int64
		pc.MaxDiscountCents = &v
	}
	if validFrom.Valid {
		v := validFrom.Time
		pc.ValidFrom = &v
	}
	if validUntil.Valid {
		v := validUntil.Time
		pc.ValidUntil = &v
	}
	if maxUses.Valid {
		v := uint32(maxUses.Int64)
		pc.MaxUses = &v
	}
	return &pc, nil
}

// IncrementUse bumps a code's usage counter, refusing to pass the usage
// cap. A miss against an existing capped-out code is reported as
// ErrPromoExhausted.
func (r *PromoRepo) IncrementUse(ctx context.Context, code string) error {
	const q = `UPDATE promo_codes SET use_count = use_count + 1
	           WHERE code = ? AND (max_uses IS NULL OR use_count < max_uses)`
	result, err := r.db.ExecContext(ctx, q, code)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPromoExhausted
	}
	return nil
}
