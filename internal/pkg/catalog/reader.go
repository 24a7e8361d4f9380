// Package catalog reads purchasable items. GetPurchasable is the only entry
// point for new sales and refuses deactivated items.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
)

const (
	listCacheKey = "catalog:active:"
	listCacheTTL = 60 * time.Second
)

// Reader is the read side of the catalog.
type Reader interface {
	// GetItem returns an item whether or not it is active.
	GetItem(ctx context.Context, id string) (*models.CatalogItem, error)
	// GetPurchasable returns an item that may be sold right now.
	GetPurchasable(ctx context.Context, id string) (*models.CatalogItem, error)
	ListActive(ctx context.Context, kind models.CatalogItemKind) ([]models.CatalogItem, error)
	// Invalidate drops cached listings after catalog changes.
	Invalidate(ctx context.Context)
}

type reader struct {
	repo  repository.CatalogRepository
	cache *redis.Client
}

// NewReader builds a Reader. cache may be nil to disable listing caching.
func NewReader(repo repository.CatalogRepository, cache *redis.Client) Reader {
	return &reader{repo: repo, cache: cache}
}

func (r *reader) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	if id == "" {
		return nil, apperrors.NotFound("catalog item id is empty")
	}
	item, err := r.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("catalog item %s", id)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *reader) GetPurchasable(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, err := r.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, apperrors.New(apperrors.KindInactive, "catalog item %s is not on sale", id)
	}
	return item, nil
}

func (r *reader) ListActive(ctx context.Context, kind models.CatalogItemKind) ([]models.CatalogItem, error) {
	key := listCacheKey + string(kind)
	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, key).Bytes(); err == nil {
			var items []models.CatalogItem
			if json.Unmarshal(raw, &items) == nil {
				return items, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warnf("[Catalog] cache read failed: %v", err)
		}
	}

	items, err := r.repo.ListActive(ctx, kind)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := r.cache.Set(ctx, key, raw, listCacheTTL).Err(); err != nil {
				log.Warnf("[Catalog] cache write failed: %v", err)
			}
		}
	}
	return items, nil
}

func (r *reader) Invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	keys := []string{listCacheKey, listCacheKey + string(models.CatalogKindMaterial), listCacheKey + string(models.CatalogKindClass)}
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		log.Warnf("[Catalog] cache invalidation failed: %v", err)
	}
}
