package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/booking/internal/model"
)

func i64(v int64) *int64 { return &v }

func u32(v uint32) *uint32 { return &v }

func ts(t time.Time) *time.Time { return &t }

func activeCode() *model.PromoCode {
	return &model.PromoCode{
		Code:             "SAVE25",
		DiscountType:     model.DiscountPercentage,
		DiscountValue:    25,
		MinPurchaseCents: 500,
		IsActive:         true,
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid code passes", func(t *testing.T) {
		assert.NoError(t, Validate(activeCode(), 1000, now))
	})

	t.Run("nil code rejected", func(t *testing.T) {
		assert.ErrorIs(t, Validate(nil, 1000, now), ErrInvalidPromoCode)
	})

	t.Run("inactive code rejected", func(t *testing.T) {
		pc := activeCode()
		pc.IsActive = false
		assert.ErrorIs(t, Validate(pc, 1000, now), ErrInvalidPromoCode)
	})

	t.Run("outside validity window rejected", func(t *testing.T) {
		pc := activeCode()
		pc.ValidFrom = ts(now.Add(time.Hour))
		assert.ErrorIs(t, Validate(pc, 1000, now), ErrInvalidPromoCode)

		pc = activeCode()
		pc.ValidUntil = ts(now.Add(-time.Hour))
		assert.ErrorIs(t, Validate(pc, 1000, now), ErrInvalidPromoCode)
	})

	t.Run("inside validity window passes", func(t *testing.T) {
		pc := activeCode()
		pc.ValidFrom = ts(now.Add(-time.Hour))
		pc.ValidUntil = ts(now.Add(time.Hour))
		assert.NoError(t, Validate(pc, 1000, now))
	})

	t.Run("below minimum purchase rejected", func(t *testing.T) {
		assert.ErrorIs(t, Validate(activeCode(), 499, now), ErrInvalidPromoCode)
	})

	t.Run("usage cap reached rejected", func(t *testing.T) {
		pc := activeCode()
		pc.MaxUses = u32(10)
		pc.UseCount = 10
		assert.ErrorIs(t, Validate(pc, 1000, now), ErrInvalidPromoCode)

		pc.UseCount = 9
		assert.NoError(t, Validate(pc, 1000, now))
	})
}

func TestComputeDiscount(t *testing.T) {
	t.Run("percentage capped by max discount", func(t *testing.T) {
		// 25% of 1000 = 250, capped at 100.
		got := ComputeDiscount(model.DiscountPercentage, 25, 1000, i64(100))
		assert.Equal(t, int64(100), got)
		assert.Equal(t, int64(900), 1000-got)
	})

	t.Run("percentage without cap", func(t *testing.T) {
		assert.Equal(t, int64(250), ComputeDiscount(model.DiscountPercentage, 25, 1000, nil))
	})

	t.Run("percentage never exceeds purchase", func(t *testing.T) {
		assert.Equal(t, int64(1000), ComputeDiscount(model.DiscountPercentage, 100, 1000, nil))
	})

	t.Run("fixed capped at purchase amount", func(t *testing.T) {
		assert.Equal(t, int64(80), ComputeDiscount(model.DiscountFixed, 100, 80, nil))
	})

	t.Run("fixed below purchase", func(t *testing.T) {
		assert.Equal(t, int64(100), ComputeDiscount(model.DiscountFixed, 100, 500, nil))
	})

	t.Run("never negative", func(t *testing.T) {
		assert.Equal(t, int64(0), ComputeDiscount(model.DiscountPercentage, -5, 1000, nil))
		assert.Equal(t, int64(0), ComputeDiscount(model.DiscountFixed, 50, 0, nil))
		assert.Equal(t, int64(0), ComputeDiscount("SPECIAL", 50, 1000, nil))
	})
}

func TestDiscount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pc := activeCode()
	pc.MaxDiscountCents = i64(100)
	got, err := Discount(pc, 1000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)

	_, err = Discount(pc, 100, now)
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE25", NormalizeCode("  save25 "))
}
