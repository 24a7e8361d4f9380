package repository

import (
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Factory builds the repository set once per database and Redis pair
type Factory struct {
	db    *gorm.DB
	rdb   *redis.Client
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB, rdb *redis.Client) *Factory {
	return &Factory{
		db:  db,
		rdb: rdb,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db, f.rdb)
	})
	return f.repos
}
