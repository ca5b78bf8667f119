package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/blog-comb/app/feed"
)

var _ Store = (*RedisStore)(nil)

const (
	fieldSearch   = "search"
	fieldSort     = "sort"
	fieldOverride = "override"
)

// RedisStore keeps each session field under its own key, with the id lists
// stored as Redis sets. Ids are returned sorted. Sessions expire after ttl
// without activity.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(sessionID, field string) string {
	return s.prefix + sessionID + ":" + field
}

func (s *RedisStore) keys(sessionID string) []string {
	return []string{
		s.key(sessionID, fieldSearch),
		s.key(sessionID, fieldSort),
		s.key(sessionID, string(SetCategories)),
		s.key(sessionID, string(SetAuthors)),
		s.key(sessionID, fieldOverride),
	}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, ErrInvalidSession
	}

	var (
		search     *redis.StringCmd
		order      *redis.StringCmd
		categories *redis.StringSliceCmd
		authors    *redis.StringSliceCmd
		override   *redis.StringCmd
	)

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		search = pipe.Get(ctx, s.key(sessionID, fieldSearch))
		order = pipe.Get(ctx, s.key(sessionID, fieldSort))
		categories = pipe.SMembers(ctx, s.key(sessionID, string(SetCategories)))
		authors = pipe.SMembers(ctx, s.key(sessionID, string(SetAuthors)))
		override = pipe.Get(ctx, s.key(sessionID, fieldOverride))
		s.touch(ctx, pipe, sessionID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return State{}, fmt.Errorf("failed to load session: %w", err)
	}

	st := NewState()
	st.Criteria.SearchQuery = search.Val()
	if o := order.Val(); o != "" {
		st.Criteria.SortOrder = feed.SortOrder(o)
	}
	st.Criteria.SelectedCategories = sortedIDs(categories.Val())
	st.Criteria.SelectedAuthors = sortedIDs(authors.Val())
	st.Selection.Override = feed.ID(override.Val())

	return st, nil
}

func (s *RedisStore) SetSearchQuery(ctx context.Context, sessionID, query string) error {
	return s.write(ctx, sessionID, "set search query", func(pipe redis.Pipeliner) {
		pipe.Set(ctx, s.key(sessionID, fieldSearch), query, s.ttl)
	})
}

func (s *RedisStore) SetSortOrder(ctx context.Context, sessionID string, order feed.SortOrder) error {
	return s.write(ctx, sessionID, "set sort order", func(pipe redis.Pipeliner) {
		pipe.Set(ctx, s.key(sessionID, fieldSort), string(order), s.ttl)
	})
}

func (s *RedisStore) AddMember(ctx context.Context, sessionID string, set Set, id feed.ID) error {
	return s.write(ctx, sessionID, "add "+string(set), func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, s.key(sessionID, string(set)), string(id))
	})
}

func (s *RedisStore) RemoveMember(ctx context.Context, sessionID string, set Set, id feed.ID) error {
	return s.write(ctx, sessionID, "remove "+string(set), func(pipe redis.Pipeliner) {
		pipe.SRem(ctx, s.key(sessionID, string(set)), string(id))
	})
}

func (s *RedisStore) ReplaceMembers(ctx context.Context, sessionID string, set Set, ids []feed.ID) error {
	return s.write(ctx, sessionID, "replace "+string(set), func(pipe redis.Pipeliner) {
		key := s.key(sessionID, string(set))
		pipe.Del(ctx, key)
		if len(ids) > 0 {
			values := make([]any, len(ids))
			for i, id := range ids {
				values[i] = string(id)
			}
			pipe.SAdd(ctx, key, values...)
		}
	})
}

func (s *RedisStore) SetOverride(ctx context.Context, sessionID string, id feed.ID) error {
	return s.write(ctx, sessionID, "set override", func(pipe redis.Pipeliner) {
		key := s.key(sessionID, fieldOverride)
		if id == "" {
			pipe.Del(ctx, key)
			return
		}
		pipe.Set(ctx, key, string(id), s.ttl)
	})
}

func (s *RedisStore) ResetCriteria(ctx context.Context, sessionID string) error {
	return s.write(ctx, sessionID, "reset criteria", func(pipe redis.Pipeliner) {
		pipe.Del(ctx,
			s.key(sessionID, fieldSearch),
			s.key(sessionID, fieldSort),
			s.key(sessionID, string(SetCategories)),
			s.key(sessionID, string(SetAuthors)),
		)
	})
}

// write runs one mutation in a MULTI/EXEC block together with the TTL refresh
// of every session key.
func (s *RedisStore) write(ctx context.Context, sessionID, op string, fn func(pipe redis.Pipeliner)) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe)
		s.touch(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

func (s *RedisStore) touch(ctx context.Context, pipe redis.Pipeliner, sessionID string) {
	if s.ttl <= 0 {
		return
	}
	for _, key := range s.keys(sessionID) {
		pipe.Expire(ctx, key, s.ttl)
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sortedIDs(values []string) []feed.ID {
	ids := make([]feed.ID, 0, len(values))
	for _, v := range values {
		ids = append(ids, feed.ID(v))
	}
	slices.Sort(ids)
	return ids
}
