package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avishkar-academy/vault/app/models"
)

const (
	contentViewsKey   = "content:counters:views"
	contentDenialsKey = "content:counters:denials"
)

// Counter buffers content view and denial counts in Redis and flushes them
// to content_view_stats in batches. Without Redis every increment is written
// straight to the database.
type Counter struct {
	rdb *redis.Client
	db  *gorm.DB
}

func New(rdb *redis.Client, db *gorm.DB) *Counter {
	return &Counter{rdb: rdb, db: db}
}

// AddView increments the pending view counter for an item
func (c *Counter) AddView(ctx context.Context, itemID string) {
	c.add(ctx, contentViewsKey, "views", itemID)
}

// AddDenial increments the pending denial counter for an item
func (c *Counter) AddDenial(ctx context.Context, itemID string) {
	c.add(ctx, contentDenialsKey, "denials", itemID)
}

func (c *Counter) add(ctx context.Context, key, column, itemID string) {
	if c == nil || itemID == "" {
		return
	}
	var err error
	if c.rdb != nil {
		err = c.rdb.HIncrBy(ctx, key, itemID, 1).Err()
	} else {
		err = c.apply(ctx, column, map[string]int64{itemID: 1})
	}
	if err != nil {
		log.Warnf("[Counter] increment %s for %s failed: %v", column, itemID, err)
	}
}

// FlushAll flushes both views and denials to the database
func (c *Counter) FlushAll(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.flushHash(ctx, contentViewsKey, "views"); err != nil {
		return err
	}
	return c.flushHash(ctx, contentDenialsKey, "denials")
}

// flushHash drains a Redis hash atomically and applies the increments.
// RENAME to a temporary key keeps in-flight increments for the next flush.
func (c *Counter) flushHash(ctx context.Context, redisKey, column string) error {
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := c.rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer c.rdb.Del(ctx, tmpKey)

	data, err := c.rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	incs := make(map[string]int64, len(data))
	for id, v := range data {
		inc, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || inc == 0 {
			continue
		}
		incs[id] = inc
	}
	return c.apply(ctx, column, incs)
}

// apply upserts one row per item, adding inc to column.
func (c *Counter) apply(ctx context.Context, column string, incs map[string]int64) error {
	if len(incs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(incs))
	for id := range incs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now()
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			row := models.ContentViewStat{CatalogItemID: id, UpdatedAt: now}
			if column == "views" {
				row.Views = incs[id]
			} else {
				row.Denials = incs[id]
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "catalog_item_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					column:       gorm.Expr(fmt.Sprintf("content_view_stats.%s + ?", column), incs[id]),
					"updated_at": now,
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
