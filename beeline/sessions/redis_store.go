package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"codeberg.org/beeline/server/internal/logger"
)

// redis key patterns
const (
	// session:{code} - session metadata as JSON, with native TTL
	keySession = "session:%s"

	// session:{code}:users - presence records as a hash of id -> JSON
	keySessionUsers = "session:%s:users"
)

// redis-backed store implementation. Sessions lean on native key TTLs
// so even an unswept deployment sheds dead sessions; record expiry
// stays logical because redis hashes have no per-field TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis")

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) CreateSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	set, err := s.client.SetNX(ctx, fmt.Sprintf(keySession, session.Code), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session in redis: %w", err)
	}

	if !set {
		return ErrCodeTaken
	}

	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, code string) (*Session, error) {
	val, err := s.client.Get(ctx, fmt.Sprintf(keySession, code)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, code string) error {
	err := s.client.Del(ctx,
		fmt.Sprintf(keySession, code),
		fmt.Sprintf(keySessionUsers, code),
	).Err()

	if err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}

	return nil
}

func (s *RedisStore) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, fmt.Sprintf(keySession, "*"), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions in redis: %w", err)
		}

		for _, key := range keys {
			if strings.HasSuffix(key, ":users") {
				continue
			}
			codes = append(codes, strings.TrimPrefix(key, "session:"))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return codes, nil
}

func (s *RedisStore) PutRecord(ctx context.Context, code string, record *Record) error {
	sessionKey := fmt.Sprintf(keySession, code)

	ttl, err := s.client.TTL(ctx, sessionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check session in redis: %w", err)
	}

	// -2 means the key does not exist
	if ttl < 0 {
		return ErrSessionNotFound
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	usersKey := fmt.Sprintf(keySessionUsers, code)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, usersKey, record.ID, data)
	// keep the users hash on the same clock as its session
	pipe.Expire(ctx, usersKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put record in redis: %w", err)
	}

	return nil
}

func (s *RedisStore) GetRecord(ctx context.Context, code, id string) (*Record, error) {
	val, err := s.client.HGet(ctx, fmt.Sprintf(keySessionUsers, code), id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record from redis: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

func (s *RedisStore) ListRecords(ctx context.Context, code string) ([]*Record, error) {
	exists, err := s.client.Exists(ctx, fmt.Sprintf(keySession, code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check session in redis: %w", err)
	}

	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	vals, err := s.client.HGetAll(ctx, fmt.Sprintf(keySessionUsers, code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records from redis: %w", err)
	}

	records := make([]*Record, 0, len(vals))

	for id, val := range vals {
		var record Record
		if err := json.Unmarshal([]byte(val), &record); err != nil {
			logger.Warn("skipping undecodable presence record",
				"code", code,
				"id", id,
			)
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

func (s *RedisStore) DeleteRecord(ctx context.Context, code, id string) error {
	err := s.client.HDel(ctx, fmt.Sprintf(keySessionUsers, code), id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete record from redis: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
