package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"quiznufi-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "quiz:leaderboard"
	entriesKey     = "quiz:leaderboard:entries"
)

// LeaderboardStore keeps entries in a sorted set scored by percentage, with
// the entry bodies in a hash.
//
//	ZADD quiz:leaderboard {percentage} {order}:{id}
//	HSET quiz:leaderboard:entries {id} <json>
//
// order is MaxInt64 minus the insert time in nanoseconds, zero padded, so
// that ZREVRANGE lists earlier entries first among equal percentages.
type LeaderboardStore struct {
	client *redis.Client
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client}
}

func (s *LeaderboardStore) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	now, err := s.client.Time(ctx).Result()
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("server time: %w", err)
	}
	entry.ID = uuid.NewString()
	entry.Rank = 0
	entry.Timestamp = now.UTC()

	body, err := json.Marshal(entry)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	member := fmt.Sprintf("%019d:%s", math.MaxInt64-now.UnixNano(), entry.ID)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, entriesKey, entry.ID, body)
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: entry.Percentage, Member: member})
		return nil
	})
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	return entry, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit < 1 {
		return nil, nil
	}
	members, err := s.client.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m[strings.IndexByte(m, ':')+1:]
	}
	bodies, err := s.client.HMGet(ctx, entriesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(bodies))
	for i, raw := range bodies {
		body, ok := raw.(string)
		if !ok {
			continue
		}
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(body), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", ids[i], err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
