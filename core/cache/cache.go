package cache

import (
	"context"
	"time"
)

// Tag names a server resource. Cached reads are labeled with the tags they
// depend on; mutations invalidate by tag.
type Tag string

// Resource tags of the dashboard API.
const (
	TagOrders     Tag = "orders"
	TagProducts   Tag = "products"
	TagCategories Tag = "categories"
	TagInventory  Tag = "inventory"
	TagCustomers  Tag = "customers"
	TagInvoices   Tag = "invoices"
	TagPackages   Tag = "packages"
	TagMedia      Tag = "media"
	TagSettings   Tag = "settings"
	TagUsers      Tag = "users"
)

// Cache stores response bodies by key.
//
// A ttl of zero uses the implementation default; implementations may treat a
// zero default as no expiry. Reset drops everything and is called whenever
// the authenticated identity changes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...Tag) error
	InvalidateTags(ctx context.Context, tags ...Tag) error
	Reset(ctx context.Context) error
}
