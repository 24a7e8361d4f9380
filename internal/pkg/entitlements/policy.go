// Package entitlements owns the access ledger: how long a purchase grants
// access, how grants are recorded and how access is decided.
package entitlements

import (
	"fmt"
	"time"

	"github.com/avishkar-academy/vault/app/models"
)

// DefaultMonths applies to items without an explicit duration.
const DefaultMonths = 3

// LifetimeSentinel is the expiry written for lifetime grants.
var LifetimeSentinel = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// DurationKind selects how an expiry is computed.
type DurationKind string

const (
	DurationLifetime DurationKind = "lifetime"
	DurationMonths   DurationKind = "months"
)

// DurationPolicy describes how long a purchase grants access.
type DurationPolicy struct {
	Kind   DurationKind
	Months int
}

func Lifetime() DurationPolicy {
	return DurationPolicy{Kind: DurationLifetime}
}

func FixedMonths(n int) DurationPolicy {
	return DurationPolicy{Kind: DurationMonths, Months: n}
}

// DefaultPolicy is used when an item carries no valid duration.
func DefaultPolicy() DurationPolicy {
	return FixedMonths(DefaultMonths)
}

// PolicyFor derives the policy from the catalog columns. A months policy
// with a non-positive count falls back to the default.
func PolicyFor(item *models.CatalogItem) DurationPolicy {
	if item == nil {
		return DefaultPolicy()
	}
	switch item.DurationType {
	case models.DurationTypeLifetime:
		return Lifetime()
	case models.DurationTypeMonths:
		if item.DurationMonths > 0 {
			return FixedMonths(item.DurationMonths)
		}
	}
	return DefaultPolicy()
}

// ExpiresAt returns the expiry of a grant made at grantedAt.
func (p DurationPolicy) ExpiresAt(grantedAt time.Time) time.Time {
	if p.Kind == DurationLifetime {
		return LifetimeSentinel
	}
	months := p.Months
	if months <= 0 {
		months = DefaultMonths
	}
	return AddCalendarMonths(grantedAt, months)
}

// Label is the human readable duration, e.g. "Lifetime" or "3 months".
func (p DurationPolicy) Label() string {
	if p.Kind == DurationLifetime {
		return "Lifetime"
	}
	months := p.Months
	if months <= 0 {
		months = DefaultMonths
	}
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

// AddCalendarMonths advances t by n calendar months. When the target month
// is shorter, the day is clamped to its last day (Jan 31 + 1 = Feb 28/29).
func AddCalendarMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// IsLifetime reports whether an expiry marks a lifetime grant.
func IsLifetime(expiresAt time.Time) bool {
	return expiresAt.Year() >= 9000
}

// RemainingLabel describes the time left until expiresAt.
func RemainingLabel(expiresAt, now time.Time) string {
	if IsLifetime(expiresAt) {
		return "Lifetime access"
	}
	if !expiresAt.After(now) {
		return "Expired"
	}
	left := expiresAt.Sub(now)
	days := int(left.Hours() / 24)
	switch {
	case days >= 60:
		return fmt.Sprintf("%d months left", days/30)
	case days >= 2:
		return fmt.Sprintf("%d days left", days)
	case days == 1:
		return "1 day left"
	default:
		hours := int(left.Hours())
		if hours < 1 {
			return "Less than an hour left"
		}
		return fmt.Sprintf("%d hours left", hours)
	}
}
