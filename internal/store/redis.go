package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/naka-gawa/talentrank/internal/domain"
)

const (
	defaultRedisPrefix = "talentrank"
	mgetChunk          = 500
)

// Redis stores each record as a JSON string and indexes scores in a sorted set.
// Both are written in one MULTI/EXEC transaction.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// OpenRedis connects to addr, which is either host:port or a redis:// URL.
func OpenRedis(ctx context.Context, addr string) (*Redis, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	s := NewRedis(redis.NewClient(opts), defaultRedisPrefix)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewRedis wraps a client; every key is namespaced under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) recordKey(key string) string { return s.prefix + ":analysis:" + key }

func (s *Redis) scoresKey() string { return s.prefix + ":scores" }

func (s *Redis) Get(ctx context.Context, subject domain.Subject) (domain.AnalysisRecord, bool, error) {
	payload, err := s.client.Get(ctx, s.recordKey(subject.Key())).Result()
	if errors.Is(err, redis.Nil) {
		return domain.AnalysisRecord{}, false, nil
	}
	if err != nil {
		return domain.AnalysisRecord{}, false, unavailable("get analysis", err)
	}
	r, err := decodeRecord(payload)
	if err != nil {
		return domain.AnalysisRecord{}, false, err
	}
	return r, true, nil
}

func (s *Redis) Put(ctx context.Context, record domain.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	key := record.Subject.Key()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(key), payload, 0)
		pipe.ZAdd(ctx, s.scoresKey(), redis.Z{Score: record.TalentRank.Score, Member: key})
		return nil
	})
	if err != nil {
		return unavailable("put analysis", err)
	}
	return nil
}

// Search walks the score index from the top and filters in memory.
func (s *Redis) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	records, err := s.all(ctx)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return filterAndPage(records, q), nil
}

func (s *Redis) Stats(ctx context.Context, nationThreshold float64) (domain.Stats, error) {
	records, err := s.all(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	b := domain.NewStatsBuilder(nationThreshold)
	for _, r := range records {
		b.Add(r)
	}
	return b.Build(), nil
}

func (s *Redis) all(ctx context.Context) ([]domain.AnalysisRecord, error) {
	keys, err := s.client.ZRevRange(ctx, s.scoresKey(), 0, -1).Result()
	if err != nil {
		return nil, unavailable("list scores", err)
	}
	records := make([]domain.AnalysisRecord, 0, len(keys))
	for start := 0; start < len(keys); start += mgetChunk {
		end := min(start+mgetChunk, len(keys))
		recordKeys := make([]string, 0, end-start)
		for _, k := range keys[start:end] {
			recordKeys = append(recordKeys, s.recordKey(k))
		}
		values, err := s.client.MGet(ctx, recordKeys...).Result()
		if err != nil {
			return nil, unavailable("load analyses", err)
		}
		for _, v := range values {
			payload, ok := v.(string)
			if !ok {
				continue
			}
			r, err := decodeRecord(payload)
			if err != nil {
				return nil, err
			}
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Redis) Close() error { return s.client.Close() }
