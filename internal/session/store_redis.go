package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

const activeIndexKey = "active_sessions"

func sessionKey(id string) string {
	return "session:" + id
}

// RedisRepository is a Repository backed by a shared Redis (or
// Redis-compatible) instance per §6's persistence-store contract:
// `session:<id>` JSON blobs plus an `active_sessions` set, no cross-key
// transactions.
type RedisRepository struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisRepository wraps an already-constructed *redis.Client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, logger: log.WithComponent("session-store")}
}

func (r *RedisRepository) Save(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.SessionID), data, sessionTTL)
	if s.Active {
		pipe.SAdd(ctx, activeIndexKey, s.SessionID)
	} else {
		pipe.SRem(ctx, activeIndexKey, s.SessionID)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID, err)
	}
	return nil
}

func (r *RedisRepository) FindByID(ctx context.Context, sessionID string) (Session, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return s, true, nil
}

func (r *RedisRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists session %s: %w", sessionID, err)
	}
	return n > 0, nil
}

func (r *RedisRepository) FindAllActiveSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers active index: %w", err)
	}
	return ids, nil
}

func (r *RedisRepository) FindAllActiveSessions(ctx context.Context) ([]Session, error) {
	ids, err := r.FindAllActiveSessionIDs(ctx)
	if err != nil {
		return nil, err
	}
	return r.fetchMany(ctx, ids)
}

func (r *RedisRepository) FindAllInactiveSessions(ctx context.Context) ([]Session, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	activeIDs, err := r.FindAllActiveSessionIDs(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	out := make([]Session, 0, len(all))
	for _, s := range all {
		if _, ok := active[s.SessionID]; !ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *RedisRepository) FindAll(ctx context.Context) ([]Session, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len("session:"):])
	}
	return r.fetchMany(ctx, ids)
}

func (r *RedisRepository) fetchMany(ctx context.Context, ids []string) ([]Session, error) {
	out := make([]Session, 0, len(ids))
	for _, id := range ids {
		s, ok, err := r.FindByID(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Str("session_id", id).Msg("failed to load session during bulk fetch")
			continue
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *RedisRepository) DeleteByID(ctx context.Context, sessionID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, activeIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisRepository) DeleteAll(ctx context.Context, ids []string) (int, error) {
	removed := 0
	for _, id := range ids {
		existed, err := r.Exists(ctx, id)
		if err != nil {
			return removed, err
		}
		if err := r.DeleteByID(ctx, id); err != nil {
			return removed, err
		}
		if existed {
			removed++
		}
	}
	return removed, nil
}

func (r *RedisRepository) CleanupOrphanedSessions(ctx context.Context) (int, error) {
	ids, err := r.FindAllActiveSessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return removed, err
		}
		if !exists {
			if err := r.client.SRem(ctx, activeIndexKey, id).Err(); err != nil {
				return removed, fmt.Errorf("srem orphan %s: %w", id, err)
			}
			removed++
		}
	}

	all, err := r.FindAll(ctx)
	if err != nil {
		return removed, err
	}
	for _, s := range all {
		if !s.Active {
			continue
		}
		member, err := r.client.SIsMember(ctx, activeIndexKey, s.SessionID).Result()
		if err != nil {
			return removed, fmt.Errorf("sismember %s: %w", s.SessionID, err)
		}
		if !member {
			if err := r.client.SAdd(ctx, activeIndexKey, s.SessionID).Err(); err != nil {
				return removed, fmt.Errorf("re-index %s: %w", s.SessionID, err)
			}
		}
	}
	return removed, nil
}

func (r *RedisRepository) CleanupOldInactiveSessionsByTTL(ctx context.Context, maxAgeHours float64) (int, error) {
	inactive, err := r.FindAllInactiveSessions(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-time.Duration(maxAgeHours * float64(time.Hour)))
	removed := 0
	for _, s := range inactive {
		if s.LastHeartbeat.Before(cutoff) {
			if err := r.DeleteByID(ctx, s.SessionID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
