package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// pagination reads ?page= and ?per_page= and returns offset and limit.
func pagination(c *fiber.Ctx) (page, perPage, offset int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage = c.QueryInt("per_page", defaultPageSize)
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	return page, perPage, (page - 1) * perPage
}

// GetClientIP determines the client address considering proxies and dual stack.
// Returns both IPv4 and IPv6 addresses if available.
func GetClientIP(c *fiber.Ctx) (ipv4, ipv6 string) {
	assign := func(ip string) {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			return
		}
		if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
			ip = strings.TrimPrefix(ip, "::ffff:")
		}
		if strings.Contains(ip, ":") {
			if ipv6 == "" {
				ipv6 = ip
			}
		} else if ipv4 == "" {
			ipv4 = ip
		}
	}

	// Cloudflare first, then the proxy chain, then the socket
	assign(c.Get("CF-Connecting-IP"))
	for _, ip := range strings.Split(c.Get("X-Forwarded-For"), ",") {
		assign(ip)
	}
	if ipv4 == "" && ipv6 == "" {
		assign(c.IP())
	}
	assign(c.Get("X-Real-IP"))
	return ipv4, ipv6
}

// ClientIP returns the best single client address for audit records,
// preferring IPv4.
func ClientIP(c *fiber.Ctx) string {
	ipv4, ipv6 := GetClientIP(c)
	if ipv4 != "" {
		return ipv4
	}
	return ipv6
}
