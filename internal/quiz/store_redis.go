package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps progress, accounts and attempt history in Redis as JSON
// values. Commit runs under WATCH on the progress key, so a concurrent
// writer from another process aborts the transaction instead of clobbering
// it; the engine retries are left to the caller because the per-key lock
// already prevents same-process races.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisProgressKey(userID, moduleID string) string {
	return "quiz:progress:" + userID + ":" + moduleID
}

func redisAccountKey(userID string) string {
	return "quiz:account:" + userID
}

func redisAttemptsKey(userID, moduleID string) string {
	return "quiz:attempts:" + userID + ":" + moduleID
}

func (s *RedisStore) GetProgress(ctx context.Context, userID, moduleID string) (*UserProgress, error) {
	buf, err := s.rdb.Get(ctx, redisProgressKey(userID, moduleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p UserProgress
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) GetAccount(ctx context.Context, userID string) (*UserAccount, error) {
	buf, err := s.rdb.Get(ctx, redisAccountKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a UserAccount
	if err := json.Unmarshal(buf, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &a, nil
}

func (s *RedisStore) Commit(ctx context.Context, progress *UserProgress, account *UserAccount, attempt *AttemptRecord) error {
	if progress == nil {
		return errors.New("commit without progress")
	}
	pbuf, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	var abuf, tbuf []byte
	if account != nil {
		if abuf, err = json.Marshal(account); err != nil {
			return fmt.Errorf("encode account: %w", err)
		}
	}
	if attempt != nil {
		if tbuf, err = json.Marshal(attempt); err != nil {
			return fmt.Errorf("encode attempt: %w", err)
		}
	}

	key := redisProgressKey(progress.UserID, progress.ModuleID)
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, pbuf, 0)
			if abuf != nil {
				pipe.Set(ctx, redisAccountKey(account.UserID), abuf, 0)
			}
			if tbuf != nil {
				pipe.LPush(ctx, redisAttemptsKey(attempt.UserID, attempt.ModuleID), tbuf)
			}
			return nil
		})
		return err
	}, key)
}

func (s *RedisStore) ListAttempts(ctx context.Context, userID, moduleID string) ([]AttemptRecord, error) {
	vals, err := s.rdb.LRange(ctx, redisAttemptsKey(userID, moduleID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]AttemptRecord, 0, len(vals))
	for _, v := range vals {
		var a AttemptRecord
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
