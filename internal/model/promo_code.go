package model

import "time"

// Discount types stored in promo_codes.discount_type.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

// PromoCode is a discount rule applied at booking time.  Codes are
// administered externally; the reservation engine only reads them and
// increments UseCount once per confirmed booking.
//
// Fields:
//  ID               – primary key identifier.
//  Code             – unique, upper-cased code string.
//  DiscountType     – PERCENTAGE or FIXED.
//  DiscountValue    – percent (0–100) or fixed amount in cents.
//  MinPurchaseCents – minimum purchase amount for the code to apply.
//  MaxDiscountCents – cap on the discount (nil for no cap).
//  ValidFrom        – start of the validity window (nil for open start).
//  ValidUntil       – end of the validity window (nil for open end).
//  MaxUses          – usage cap (nil for unlimited).
//  UseCount         – confirmed bookings that used this code.
//  IsActive         – whether the code can currently be applied.
type PromoCode struct {
	ID               uint64     // promo_codes.id
	Code             string     // promo_codes.code
	DiscountType     string     // promo_codes.discount_type
	DiscountValue    int64      // promo_codes.discount_value
	MinPurchaseCents int64      // promo_codes.min_purchase_cents
	MaxDiscountCents *int64     // promo_codes.max_discount_cents (nullable)
	ValidFrom        *time.Time // promo_codes.valid_from (nullable)
	ValidUntil       *time.Time // promo_codes.valid_until (nullable)
	MaxUses          *uint32    // promo_codes.max_uses (nullable)
	UseCount         uint32     // promo_codes.use_count
	IsActive         bool       // promo_codes.is_active
	CreatedAt        time.Time  // promo_codes.created_at
	UpdatedAt        time.Time  // promo_codes.updated_at
}
