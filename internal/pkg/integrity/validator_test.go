package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/audit"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/database/dbtest"
)

func setup(t *testing.T) (*Validator, *repository.Repositories, *models.CatalogItem) {
	t.Helper()
	repos := repository.NewRepositories(dbtest.Open(t), nil)
	item := &models.CatalogItem{Title: "Physics crash course", PriceMinor: 29900, IsPremium: true, Active: true}
	require.NoError(t, repos.Catalog.Create(context.Background(), item))
	v := NewValidator(catalog.NewReader(repos.Catalog, nil), repos.Enrollment, audit.NewTrail(repos.Audit))
	return v, repos, item
}

func TestCheckPriceIntegrity(t *testing.T) {
	ctx := context.Background()
	v, repos, item := setup(t)

	assert.NoError(t, v.CheckPriceIntegrity(ctx, item.ID, nil, "u1"))

	exact := int64(29900)
	assert.NoError(t, v.CheckPriceIntegrity(ctx, item.ID, &exact, "u1"))

	tampered := int64(1)
	err := v.CheckPriceIntegrity(ctx, item.ID, &tampered, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrPriceMismatch))

	_, total, err := repos.Audit.List(ctx, models.AuditPriceMismatch, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	err = v.CheckPriceIntegrity(ctx, "missing", &exact, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCheckDuplicate(t *testing.T) {
	ctx := context.Background()
	v, repos, _ := setup(t)

	require.NoError(t, v.CheckDuplicate(ctx, "a@x.com", "c1"))

	_, err := repos.Enrollment.Create(ctx, &models.EnrollmentRecord{
		ContactEmail: "a@x.com", ClassID: "c1", StudentName: "A", ClassTitle: "C",
		Currency: "INR", PaymentStatus: models.EnrollmentPaymentWaived,
	})
	require.NoError(t, err)

	err = v.CheckDuplicate(ctx, " A@X.com ", "c1")
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyEnrolled))
	assert.NoError(t, v.CheckDuplicate(ctx, "a@x.com", "c2"))
}
