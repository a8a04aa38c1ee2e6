package seats

import (
	"context"
	"strconv"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// SeatLocker gates contention for individual seats with short-lived
// keys. The lock is a hint that narrows the race window; the durable
// store's conditional update remains the authority.
type SeatLocker interface {
	// Acquire tries SET-if-absent with a TTL. Returns false when the
	// seat is already held by someone.
	Acquire(ctx context.Context, seatID, userID int64, ttl time.Duration) (bool, error)

	// Release drops the lock unconditionally.
	Release(ctx context.Context, seatID int64) error

	// ReleaseMany drops many locks in one round trip.
	ReleaseMany(ctx context.Context, seatIDs []int64) error

	// Held reports which of the given seats currently have a live lock.
	Held(ctx context.Context, seatIDs []int64) (map[int64]bool, error)
}

type redisSeatLocker struct {
	client *redis.Client
}

func NewRedisSeatLocker(client *redis.Client) SeatLocker {
	return &redisSeatLocker{client: client}
}

func (l *redisSeatLocker) Acquire(ctx context.Context, seatID, userID int64, ttl time.Duration) (bool, error) {
	key := constants.BuildSeatLockKey(seatID)
	return l.client.SetNX(ctx, key, strconv.FormatInt(userID, 10), ttl).Result()
}

func (l *redisSeatLocker) Release(ctx context.Context, seatID int64) error {
	return l.client.Del(ctx, constants.BuildSeatLockKey(seatID)).Err()
}

func (l *redisSeatLocker) ReleaseMany(ctx context.Context, seatIDs []int64) error {
	if len(seatIDs) == 0 {
		return nil
	}

	pipe := l.client.Pipeline()
	for _, id := range seatIDs {
		pipe.Del(ctx, constants.BuildSeatLockKey(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *redisSeatLocker) Held(ctx context.Context, seatIDs []int64) (map[int64]bool, error) {
	held := make(map[int64]bool, len(seatIDs))
	if len(seatIDs) == 0 {
		return held, nil
	}

	pipe := l.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(seatIDs))
	for i, id := range seatIDs {
		cmds[i] = pipe.Exists(ctx, constants.BuildSeatLockKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, id := range seatIDs {
		held[id] = cmds[i].Val() > 0
	}
	return held, nil
}
