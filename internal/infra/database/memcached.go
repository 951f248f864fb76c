package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached creates the client backing the month-query cache.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
