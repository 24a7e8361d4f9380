package cache

import (
	"net"
	"strconv"

	redisstorage "github.com/gofiber/storage/redis"
)

// NewFiberStorage returns a fiber.Storage on the cache server, used by the
// rate limiter so counters are shared across instances. It uses its own
// database so limiter keys never mix with cache keys.
func NewFiberStorage(database int) *redisstorage.Storage {
	opts := Options()
	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: database,
		Reset:    false,
	})
}
