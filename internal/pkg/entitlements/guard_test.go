package entitlements_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-academy/vault/internal/pkg/database/dbtest"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
)

func TestGuardExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	ledger := entitlements.NewLedger(dbtest.Open(t))
	guard := entitlements.NewGuard(ledger)

	granted := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	expires := entitlements.FixedMonths(3).ExpiresAt(granted)
	_, _, err := ledger.Insert(ctx, grant("u1", "item", "pay_1", granted, expires))
	require.NoError(t, err)

	ok, err := guard.HasActiveAccess(ctx, "u1", "item", expires.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.HasActiveAccess(ctx, "u1", "item", expires)
	require.NoError(t, err)
	assert.False(t, ok)

	d, err := guard.Check(ctx, "u1", "item", expires.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, entitlements.ReasonExpired, d.Reason)
	assert.NotNil(t, d.ExpiresAt())
}

func TestGuardLifetimeGrant(t *testing.T) {
	ctx := context.Background()
	ledger := entitlements.NewLedger(dbtest.Open(t))
	guard := entitlements.NewGuard(ledger)

	_, _, err := ledger.Insert(ctx, grant("u1", "item", "pay_1", now, entitlements.LifetimeSentinel))
	require.NoError(t, err)

	d, err := guard.Check(ctx, "u1", "item", now.AddDate(50, 0, 0))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Lifetime())
}

func TestGuardDeniesWithoutEntitlement(t *testing.T) {
	ctx := context.Background()
	guard := entitlements.NewGuard(entitlements.NewLedger(dbtest.Open(t)))

	d, err := guard.Check(ctx, "u1", "item", now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, entitlements.ReasonNoEntitlement, d.Reason)
	assert.Nil(t, d.ExpiresAt())

	d, err = guard.Check(ctx, "", "item", now)
	require.NoError(t, err)
	assert.Equal(t, entitlements.ReasonAnonymous, d.Reason)
}

func TestGuardUsesLatestGrantEvenIfShorter(t *testing.T) {
	ctx := context.Background()
	ledger := entitlements.NewLedger(dbtest.Open(t))
	guard := entitlements.NewGuard(ledger)

	_, _, err := ledger.Insert(ctx, grant("u1", "item", "pay_life", now.AddDate(-1, 0, 0), entitlements.LifetimeSentinel))
	require.NoError(t, err)
	_, _, err = ledger.Insert(ctx, grant("u1", "item", "pay_short", now.AddDate(0, -4, 0), now.AddDate(0, -1, 0)))
	require.NoError(t, err)

	ok, err := guard.HasActiveAccess(ctx, "u1", "item", now)
	require.NoError(t, err)
	assert.False(t, ok)
}
