package content

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Presigner issues temporary URLs for objects in private storage.
type Presigner interface {
	PresignGet(ctx context.Context, locator string, ttl time.Duration) (string, error)
}

// Resolver turns a stored content locator into a URL a browser can fetch.
type Resolver struct {
	presigner Presigner
}

// NewResolver returns a Resolver. presigner may be nil when no bucket is
// configured; s3 locators then fail to resolve.
func NewResolver(presigner Presigner) *Resolver {
	return &Resolver{presigner: presigner}
}

func (r *Resolver) Resolve(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", errors.New("item has no content")
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid content locator: %w", err)
	}
	switch u.Scheme {
	case "s3":
		if r.presigner == nil {
			return "", errors.New("object storage is not configured")
		}
		return r.presigner.PresignGet(ctx, locator, ttl)
	case "https", "http":
		return locator, nil
	default:
		return "", fmt.Errorf("unsupported content locator scheme %q", u.Scheme)
	}
}
