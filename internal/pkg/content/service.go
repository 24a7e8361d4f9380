// Package content delivers study material. Every view and every file fetch
// runs the access guard first; locators leave the server only as redirects
// after a pass.
package content

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/catalog"
	"github.com/avishkar-academy/vault/internal/pkg/entitlements"
	"github.com/avishkar-academy/vault/internal/pkg/security"
)

// ViewCounter receives view and denial counts.
type ViewCounter interface {
	AddView(ctx context.Context, itemID string)
	AddDenial(ctx context.Context, itemID string)
}

// Config configures the content service.
type Config struct {
	LinkSecret string
	LinkTTL    time.Duration
	// BasePath is where the content routes are mounted, e.g. "/content".
	BasePath string
}

// View is a permitted view of one item.
type View struct {
	Item     *models.CatalogItem
	Kind     Kind
	FileURL  string
	Decision *entitlements.Decision
}

// Denial explains a refused view.
type Denial struct {
	Item     *models.CatalogItem
	Decision *entitlements.Decision
}

func (d *Denial) Error() string {
	return fmt.Sprintf("access to %s denied: %s", d.Item.ID, d.Decision.Reason)
}

func (d *Denial) Unwrap() error { return apperrors.ErrForbidden }

type Service struct {
	catalog  catalog.Reader
	guard    *entitlements.Guard
	resolver *Resolver
	counter  ViewCounter
	cfg      Config
	now      func() time.Time
}

func NewService(reader catalog.Reader, guard *entitlements.Guard, resolver *Resolver, counter ViewCounter, cfg Config, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = time.Hour
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/content"
	}
	return &Service{catalog: reader, guard: guard, resolver: resolver, counter: counter, cfg: cfg, now: now}
}

// authorize runs the guard for premium items. Free items only need a user.
func (s *Service) authorize(ctx context.Context, userID string, item *models.CatalogItem) (*entitlements.Decision, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindAuthenticationRequired, "login required")
	}
	if item.IsFree() {
		return &entitlements.Decision{Allowed: true}, nil
	}
	d, err := s.guard.Check(ctx, userID, item.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		if s.counter != nil {
			s.counter.AddDenial(ctx, item.ID)
		}
		log.Infof("[Content] denied user=%s item=%s reason=%s", userID, item.ID, d.Reason)
		return nil, &Denial{Item: item, Decision: d}
	}
	return d, nil
}

// Open checks access and returns the viewer model with a signed file link.
func (s *Service) Open(ctx context.Context, userID, itemID string) (*View, error) {
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	d, err := s.authorize(ctx, userID, item)
	if err != nil {
		return nil, err
	}

	token, err := security.IssueContentLinkToken(userID, item.ID, s.cfg.LinkTTL, s.cfg.LinkSecret, s.now())
	if err != nil {
		return nil, err
	}
	if s.counter != nil {
		s.counter.AddView(ctx, item.ID)
	}
	return &View{
		Item:     item,
		Kind:     KindFromLocator(item.ContentRef),
		FileURL:  fmt.Sprintf("%s/%s/file?token=%s", s.cfg.BasePath, url.PathEscape(item.ID), url.QueryEscape(token)),
		Decision: d,
	}, nil
}

// ResolveFile validates a signed link, runs the guard again for the user the
// link was issued to and returns the short lived content URL.
func (s *Service) ResolveFile(ctx context.Context, itemID, token string) (string, error) {
	claims, err := security.VerifyContentLinkToken(token, itemID, s.cfg.LinkSecret, s.now())
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindForbidden, err, "invalid or expired content link")
	}
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if _, err := s.authorize(ctx, claims.UserID, item); err != nil {
		return "", err
	}

	ttl := claims.ExpiresTime().Sub(s.now())
	if ttl < time.Minute {
		ttl = time.Minute
	}
	target, err := s.resolver.Resolve(ctx, item.ContentRef, ttl)
	if err != nil {
		log.Errorf("[Content] resolve failed item=%s: %v", item.ID, err)
		return "", apperrors.Wrap(apperrors.KindNotFound, err, "content unavailable")
	}
	return target, nil
}
