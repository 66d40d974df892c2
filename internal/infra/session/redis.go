package session

import (
	"context"
	"errors"
	"time"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "paysession:"

// commitScript makes hash check, read and delete one atomic step so a token
// can be consumed at most once even under concurrent commits.
var commitScript = redis.NewScript(`
local h = redis.call("HGET", KEYS[1], "hash")
if not h or h ~= ARGV[1] then
  return false
end
local p = redis.call("HGET", KEYS[1], "payload")
redis.call("DEL", KEYS[1])
return p
`)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) (Store, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Create(ctx context.Context, payload []byte) (string, string, error) {
	token := uuid.NewString()
	hash := crypto.HashHex(payload)
	key := redisKeyPrefix + token

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "payload", payload, "hash", hash)
	pipe.PExpire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", "", err
	}
	return token, hash, nil
}

func (s *redisStore) Peek(ctx context.Context, token string) ([]byte, string, error) {
	values, err := s.client.HMGet(ctx, redisKeyPrefix+token, "payload", "hash").Result()
	if err != nil {
		return nil, "", err
	}
	payload, ok := values[0].(string)
	if !ok {
		return nil, "", domain.ErrSessionInvalid
	}
	hash, ok := values[1].(string)
	if !ok {
		return nil, "", domain.ErrSessionInvalid
	}
	return []byte(payload), hash, nil
}

func (s *redisStore) Commit(ctx context.Context, token, claimedHash string) ([]byte, error) {
	result, err := commitScript.Run(ctx, s.client, []string{redisKeyPrefix + token}, claimedHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}
	payload, ok := result.(string)
	if !ok {
		return nil, domain.ErrSessionInvalid
	}
	return []byte(payload), nil
}
