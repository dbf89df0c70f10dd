// Package redis stores leaflets in Redis: one JSON value per leaflet plus a
// sorted-set index scored by creation time.
package redis

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	backend "github.com/redis/go-redis/v9"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/store"
)

const defaultPrefix = "leaftran:leaflet:"

type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for leaflets.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// SaveLeaflet writes l and (re)indexes it by its creation date.
func (s *Store) SaveLeaflet(ctx context.Context, l internal.Leaflet) error {
	if l.ID == "" {
		return errors.New("leaflet id required")
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal leaflet: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(l.ID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(l.Date.UnixMilli()),
		Member: l.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *Store) GetLeaflet(ctx context.Context, id string) (internal.Leaflet, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, backend.Nil) {
		return internal.Leaflet{}, fmt.Errorf("leaflet %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return internal.Leaflet{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	return decode(id, val)
}

// ListLeaflets returns leaflets newest first. Index entries whose value has
// gone missing are skipped.
func (s *Store) ListLeaflets(ctx context.Context) ([]internal.Leaflet, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	leaflets := []internal.Leaflet{}
	if len(ids) == 0 {
		return leaflets, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load leaflets: %w", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		l, err := decode(ids[i], raw)
		if err != nil {
			return nil, err
		}
		leaflets = append(leaflets, l)
	}
	// The index orders equal scores by member; dates decide.
	internal.SortByDateDesc(leaflets)
	return leaflets, nil
}

// DeleteLeaflet removes the leaflet, returning store.ErrNotFound if there was
// none.
func (s *Store) DeleteLeaflet(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("leaflet %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func decode(id, raw string) (internal.Leaflet, error) {
	var l internal.Leaflet
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return internal.Leaflet{}, fmt.Errorf("leaflet %s: failed to unmarshal: %w", id, err)
	}
	return l, nil
}
