// Package redis provides a Redis-backed implementation of driven.ReferenceStore.
//
// Each draft owns four keys under the configured prefix, where <hex> is
// the hex-encoded draft id:
//
//	<prefix>draft:{<hex>}          marker set on first insert
//	<prefix>draft:{<hex>}:order    list of reference ids in insertion order
//	<prefix>draft:{<hex>}:refs     hash of reference id to JSON record
//	<prefix>draft:{<hex>}:targets  hash of "chunk\nparagraph" to reference id
//
// Encoding keeps arbitrary draft ids from colliding with another draft's
// keys, and the braces keep a draft's keys in one cluster slot.
//
// Mutations run as Lua scripts so the uniqueness check and the write are
// a single atomic step on the server.
package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ReferenceStore = (*Store)(nil)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "prism:"

func init() {
	goredis.SetLogger(clientLogger{log: logger.For("redis")})
}

// clientLogger routes go-redis internal messages, such as dial retries,
// to the debug log instead of stderr.
type clientLogger struct {
	log *logger.Logger
}

func (l clientLogger) Printf(_ context.Context, format string, v ...any) {
	l.log.Debug(format, v...)
}

// insertScript adds a reference unless its target is already taken.
// Returns 1 on insert, 0 on duplicate.
var insertScript = goredis.NewScript(`
if redis.call('HSETNX', KEYS[4], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('SET', KEYS[1], '1')
redis.call('RPUSH', KEYS[2], ARGV[2])
redis.call('HSET', KEYS[3], ARGV[2], ARGV[3])
return 1
`)

// deleteScript removes a reference.
// Returns 1 on delete, 0 when the reference is absent, -1 when the draft is unknown.
var deleteScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HDEL', KEYS[3], ARGV[1]) == 0 then
	return 0
end
redis.call('LREM', KEYS[2], 1, ARGV[1])
local targets = redis.call('HGETALL', KEYS[4])
for i = 1, #targets, 2 do
	if targets[i + 1] == ARGV[1] then
		redis.call('HDEL', KEYS[4], targets[i])
		break
	end
end
return 1
`)

// listScript returns the draft's reference records in order.
var listScript = goredis.NewScript(`
local ids = redis.call('LRANGE', KEYS[2], 0, -1)
if #ids == 0 then
	return {}
end
return redis.call('HMGET', KEYS[3], unpack(ids))
`)

// Config holds Redis connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis-backed reference store.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// keys returns the draft's marker, order, refs and targets keys.
func (s *Store) keys(draftID string) []string {
	base := s.prefix + "draft:{" + hex.EncodeToString([]byte(draftID)) + "}"
	return []string{base, base + ":order", base + ":refs", base + ":targets"}
}

func target(ref domain.Reference) string {
	return ref.ChunkID + "\n" + strconv.Itoa(ref.ParagraphIndex)
}

// Insert stores a reference atomically.
func (s *Store) Insert(ctx context.Context, ref domain.Reference) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode reference: %w", err)
	}

	n, err := insertScript.Run(ctx, s.client, s.keys(ref.DraftID), target(ref), ref.ID, data).Int()
	if err != nil {
		return fmt.Errorf("insert reference: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateReference
	}
	return nil
}

// List returns a draft's references in insertion order.
func (s *Store) List(ctx context.Context, draftID string) ([]domain.Reference, error) {
	values, err := listScript.Run(ctx, s.client, s.keys(draftID)).Slice()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	refs := make([]domain.Reference, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var ref domain.Reference
		if err := json.Unmarshal([]byte(raw), &ref); err != nil {
			return nil, fmt.Errorf("decode reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Delete removes one reference from a draft.
func (s *Store) Delete(ctx context.Context, draftID, referenceID string) error {
	n, err := deleteScript.Run(ctx, s.client, s.keys(draftID), referenceID).Int()
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	switch n {
	case -1:
		return domain.ErrDraftNotFound
	case 0:
		return domain.ErrReferenceNotFound
	default:
		return nil
	}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
