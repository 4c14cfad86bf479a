// Package badger keeps the velocity streak cache in an embedded BadgerDB.
// Entries carry a native TTL so identities that stop appearing expire even
// when no run prunes them.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/idhash"
	"trendbuild/internal/storage"
)

const streakPrefix = "streak:"

type streakValue struct {
	URL      string `json:"url"`
	Streak   int    `json:"streak"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Open opens (or creates) a BadgerDB at dir. An empty dir opens in memory.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return db, nil
}

// StreakStore implements storage.StreakStore on BadgerDB.
// Keys are streak:<base58(sha256(url))>.
type StreakStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStreakStore creates a streak store. ttl <= 0 disables native expiry.
func NewStreakStore(db *badger.DB, ttl time.Duration, logger *zerolog.Logger) *StreakStore {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &StreakStore{
		db:     db,
		ttl:    ttl,
		logger: l.With().Str("component", "streak_badger").Logger(),
	}
}

func streakKey(url string) []byte {
	return []byte(streakPrefix + idhash.IdentityKey(url))
}

// Load returns every live entry. Values that fail to decode are skipped.
func (s *StreakStore) Load(_ context.Context) (map[string]domain.StreakEntry, error) {
	entries := make(map[string]domain.StreakEntry)
	prefix := []byte(streakPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var v streakValue
				if err := json.Unmarshal(val, &v); err != nil || v.URL == "" {
					s.logger.Warn().Str("key", string(item.Key())).Msg("skipping undecodable streak entry")
					return nil
				}
				entries[v.URL] = domain.StreakEntry{Streak: v.Streak, LastSeen: v.LastSeen}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	return entries, nil
}

// Save replaces every entry in one transaction: new entries are written and
// keys absent from entries are deleted, so a failed save leaves the previous
// cache intact.
func (s *StreakStore) Save(ctx context.Context, entries map[string]domain.StreakEntry) error {
	keep := make(map[string]struct{}, len(entries))
	prefix := []byte(streakPrefix)

	err := s.db.Update(func(txn *badger.Txn) error {
		for url, e := range entries {
			if url == "" {
				continue
			}
			data, err := json.Marshal(streakValue{URL: url, Streak: e.Streak, LastSeen: e.LastSeen})
			if err != nil {
				return fmt.Errorf("encode streak: %w", err)
			}
			key := streakKey(url)
			keep[string(key)] = struct{}{}
			entry := badger.NewEntry(key, data)
			if s.ttl > 0 {
				entry = entry.WithTTL(s.ttl)
			}
			if err := txn.SetEntry(entry); err != nil {
				return fmt.Errorf("write streak: %w", err)
			}
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := keep[string(key)]; !ok {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete streak: %w", err)
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return fmt.Errorf("save streaks: %w", err)
	}
	return nil
}

// Prune deletes entries last seen before cutoff.
func (s *StreakStore) Prune(ctx context.Context, cutoff string) (int, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	var expired [][]byte
	for url, e := range entries {
		if !storage.KeepStreak(e, cutoff) {
			expired = append(expired, streakKey(url))
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune streaks: %w", err)
	}
	return len(expired), nil
}

var _ storage.StreakStore = (*StreakStore)(nil)
