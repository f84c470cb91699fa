package session

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/giftdesk/internal/dbx"
)

// Metadata keys owned by the session cache.
const (
	keyToken     = "session.token"
	keyExpiresAt = "session.expires_at"
	keyEmployee  = "session.employee"
	keyIsNewUser = "session.is_new_user"
)

var sessionKeys = []string{keyToken, keyExpiresAt, keyEmployee, keyIsNewUser}

// Snapshot is the persisted form of an established session.
type Snapshot struct {
	Token     string
	ExpiresAt time.Time
	Employee  api.Employee
	IsNewUser bool
}

// Store persists the session between client runs. The server stays the
// source of truth; the store is only a cache of its last answer.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Hydrate(ctx context.Context, employee api.Employee, expiresAt time.Time) (bool, error)
	Clear(ctx context.Context) error
}

// Cache is the Store kept in the sqlite metadata table.
type Cache struct {
	db *sql.DB
}

func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Load returns the cached session, or nil when no token is stored.
// A token with unreadable companion fields is still returned so it can be
// confirmed with the server.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	values, err := metadata.NewSQLiteRepository(c.db).GetMany(ctx, sessionKeys...)
	if err != nil {
		return nil, err
	}

	token := string(values[keyToken])
	if token == "" {
		return nil, nil
	}

	s := &Snapshot{Token: token, IsNewUser: string(values[keyIsNewUser]) == "1"}
	if raw := values[keyExpiresAt]; raw != nil {
		if at, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			s.ExpiresAt = at
		}
	}
	if raw := values[keyEmployee]; raw != nil {
		_ = json.Unmarshal(raw, &s.Employee)
	}
	return s, nil
}

// Save replaces the cached session with s.
func (c *Cache) Save(ctx context.Context, s Snapshot) error {
	emp, err := json.Marshal(s.Employee)
	if err != nil {
		return fmt.Errorf("encode employee: %w", err)
	}

	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyToken, []byte(s.Token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyExpiresAt, encodeTime(s.ExpiresAt)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyEmployee, emp); err != nil {
			return err
		}
		return repo.Set(ctx, keyIsNewUser, encodeBool(s.IsNewUser))
	})
}

// Hydrate overwrites the cached employee snapshot and expiry with the
// server's values. Only fields that differ are written. It reports whether
// the expiry changed.
func (c *Cache) Hydrate(ctx context.Context, employee api.Employee, expiresAt time.Time) (bool, error) {
	emp, err := json.Marshal(employee)
	if err != nil {
		return false, fmt.Errorf("encode employee: %w", err)
	}
	want := map[string][]byte{
		keyExpiresAt: encodeTime(expiresAt),
		keyEmployee:  emp,
		keyIsNewUser: encodeBool(employee.IsNewUser),
	}

	var expiryChanged bool
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		have, err := repo.GetMany(ctx, keyExpiresAt, keyEmployee, keyIsNewUser)
		if err != nil {
			return err
		}
		for key, value := range want {
			if bytes.Equal(have[key], value) {
				continue
			}
			if err := repo.Set(ctx, key, value); err != nil {
				return err
			}
			if key == keyExpiresAt {
				expiryChanged = true
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return expiryChanged, nil
}

// Clear removes every session field from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(c.db).Delete(ctx, sessionKeys...)
}

func encodeTime(t time.Time) []byte {
	return []byte(t.UTC().Format(time.RFC3339Nano))
}

func encodeBool(b bool) []byte {
	if b {
		return []byte("1")
	}
	return []byte("0")
}
