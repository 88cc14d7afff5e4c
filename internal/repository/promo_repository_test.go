package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/booking/internal/model"
)

func newPromoMock(t *testing.T) (*PromoRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPromoRepo(db), mock
}

func TestPromoRepoGetByCode(t *testing.T) {
	repo, mock := newPromoMock(t)
	until := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)

	cols := []string{
		"id", "code", "discount_type", "discount_value",
		"min_purchase_cents", "max_discount_cents",
		"valid_from", "valid_until", "max_uses", "use_count", "is_active",
	}
	mock.ExpectQuery("SELECT (.+) FROM promo_codes WHERE code").
		WithArgs("SAVE25").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			1, "SAVE25", model.DiscountPercentage, 25,
			500, 100,
			nil, until, 1000, 17, true,
		))

	pc, err := repo.GetByCode(context.Background(), "SAVE25")
	require.NoError(t, err)
	assert.Equal(t, "SAVE25", pc.Code)
	assert.Equal(t, int64(500), pc.MinPurchaseCents)
	require.NotNil(t, pc.MaxDiscountCents)
	assert.Equal(t, int64(100), *pc.MaxDiscountCents)
	assert.Nil(t, pc.ValidFrom)
	require.NotNil(t, pc.ValidUntil)
	assert.True(t, pc.ValidUntil.Equal(until))
	require.NotNil(t, pc.MaxUses)
	assert.Equal(t, uint32(1000), *pc.MaxUses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepoGetByCodeMissingIsNotAnError(t *testing.T) {
	repo, mock := newPromoMock(t)

	mock.ExpectQuery("SELECT (.+) FROM promo_codes WHERE code").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	pc, err := repo.GetByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, pc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepoIncrementUseRespectsCap(t *testing.T) {
	repo, mock := newPromoMock(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE promo_codes SET use_count").
		WithArgs("SAVE25").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.IncrementUse(ctx, "SAVE25"))

	mock.ExpectExec("UPDATE promo_codes SET use_count").
		WithArgs("SAVE25").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.IncrementUse(ctx, "SAVE25")
	assert.ErrorIs(t, err, ErrPromoExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
