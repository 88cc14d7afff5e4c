// Package promo validates discount codes and prices their discount
// against a purchase amount.  Codes themselves are administered outside
// the reservation engine; the engine only reads them and accounts usage.
package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seatwise/booking/internal/model"
)

// ErrInvalidPromoCode is the base error for every validation failure.
// Specific reasons wrap it so handlers can match with errors.Is while
// still returning a human-readable message.
var ErrInvalidPromoCode = errors.New("invalid promo code")

// NormalizeCode upper-cases and trims a code the way it is stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks whether a code may be applied to a purchase of the
// given amount at the given instant.  It returns nil when the code
// applies, or an error wrapping ErrInvalidPromoCode naming the reason.
func Validate(pc *model.PromoCode, purchaseCents int64, now time.Time) error {
	if pc == nil {
		return fmt.Errorf("%w: code does not exist", ErrInvalidPromoCode)
	}
	if !pc.IsActive {
		return fmt.Errorf("%w: code is not active", ErrInvalidPromoCode)
	}
	if pc.ValidFrom != nil && now.Before(*pc.ValidFrom) {
		return fmt.Errorf("%w: code is not valid yet", ErrInvalidPromoCode)
	}
	if pc.ValidUntil != nil && now.After(*pc.ValidUntil) {
		return fmt.Errorf("%w: code has expired", ErrInvalidPromoCode)
	}
	if purchaseCents < pc.MinPurchaseCents {
		return fmt.Errorf("%w: purchase amount below minimum", ErrInvalidPromoCode)
	}
	if pc.MaxUses != nil && pc.UseCount >= *pc.MaxUses {
		return fmt.Errorf("%w: usage limit reached", ErrInvalidPromoCode)
	}
	return nil
}

// ComputeDiscount prices the discount of a validated code.  For
// percentage codes the raw discount is purchase × value / 100, capped at
// the code's maximum discount when set; for fixed codes the discount is
// the value itself.  The result is always within [0, purchaseCents].
func ComputeDiscount(discountType string, value, purchaseCents int64, maxDiscountCents *int64) int64 {
	if value <= 0 || purchaseCents <= 0 {
		return 0
	}
	var discount int64
	switch discountType {
	case model.DiscountPercentage:
		discount = purchaseCents * value / 100
		if maxDiscountCents != nil && discount > *maxDiscountCents {
			discount = *maxDiscountCents
		}
	case model.DiscountFixed:
		discount = value
	default:
		return 0
	}
	if discount > purchaseCents {
		discount = purchaseCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Discount validates a code and computes its discount in one step, the
// form the reservation coordinator consumes.
func Discount(pc *model.PromoCode, purchaseCents int64, now time.Time) (int64, error) {
	if err := Validate(pc, purchaseCents, now); err != nil {
		return 0, err
	}
	return ComputeDiscount(pc.DiscountType, pc.DiscountValue, purchaseCents, pc.MaxDiscountCents), nil
}
