// Package cache wraps a storage.Storage with a redis read-through cache
// for the full contact list. Every write drops the cached list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/contact-manager/internal/storage"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// ListKey holds the JSON-encoded result of ListContacts.
const ListKey = "contacts:all"

const defaultTTL = 30 * time.Second

// Cached decorates a Storage. Redis failures are logged and the call
// falls through to the wrapped store.
type Cached struct {
	storage.Storage
	client *redis.Client
	ttl    time.Duration
}

var _ storage.Storage = (*Cached)(nil)

// New wraps next. A zero ttl uses 30s.
func New(next storage.Storage, client *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cached{Storage: next, client: client, ttl: ttl}
}

func (c *Cached) ListContacts(ctx context.Context) ([]types.Contact, error) {
	data, err := c.client.Get(ctx, ListKey).Bytes()
	switch {
	case err == nil:
		var contacts []types.Contact
		if uerr := json.Unmarshal(data, &contacts); uerr == nil {
			return contacts, nil
		}
		slog.Warn("dropping undecodable cached contact list")
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("contact cache read failed", slog.String("error", err.Error()))
	}

	contacts, err := c.Storage.ListContacts(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(contacts); err == nil {
		if err := c.client.Set(ctx, ListKey, data, c.ttl).Err(); err != nil {
			slog.Warn("contact cache write failed", slog.String("error", err.Error()))
		}
	}
	return contacts, nil
}

func (c *Cached) CreateContacts(ctx context.Context, inputs []types.ContactInput) ([]int64, error) {
	ids, err := c.Storage.CreateContacts(ctx, inputs)
	if err == nil {
		c.invalidate(ctx)
	}
	return ids, err
}

func (c *Cached) CreateContact(ctx context.Context, in types.ContactInput) (types.Contact, error) {
	contact, err := c.Storage.CreateContact(ctx, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return contact, err
}

func (c *Cached) UpdateContactByID(ctx context.Context, id int64, in types.ContactInput) (types.Contact, error) {
	contact, err := c.Storage.UpdateContactByID(ctx, id, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return contact, err
}

func (c *Cached) DeleteContactByID(ctx context.Context, id int64) error {
	err := c.Storage.DeleteContactByID(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

// Ping checks both redis and the wrapped store.
func (c *Cached) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return c.Storage.Ping(ctx)
}

func (c *Cached) Close() error {
	return errors.Join(c.client.Close(), c.Storage.Close())
}

func (c *Cached) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, ListKey).Err(); err != nil {
		slog.Warn("contact cache invalidate failed", slog.String("error", err.Error()))
	}
}
