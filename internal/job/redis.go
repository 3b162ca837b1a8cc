package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persisted layout:
//
//	job:{id}            JSON record, TTL
//	user:{user}:jobs    ZSET of job IDs scored by creation time
//	jobs:status:{state} ZSET of job IDs scored by creation time
func jobKey(id string) string { return "job:" + id }

func userKey(userID string) string { return "user:" + userID + ":jobs" }

func statusKey(s Status) string { return "jobs:status:" + string(s) }

// scoreFor converts a timestamp to an index score. Microseconds keep the
// ordering exact within float64 precision.
func scoreFor(t time.Time) float64 { return float64(t.UnixMicro()) }

// RedisStore is the Redis-backed implementation of Store.
// Record and index writes for one mutation share a single MULTI/EXEC commit.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultTTL is how long job records are retained after creation.
const DefaultTTL = 24 * time.Hour

// NewRedisStore creates a Store backed by the given Redis client.
// A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create persists a fresh job and registers it in both secondary indexes.
func (s *RedisStore) Create(ctx context.Context, j *Job) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("job: encode %s: %w", j.ID, err)
	}

	score := scoreFor(j.CreatedAt)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(j.ID), payload, s.ttl)
		pipe.ZAdd(ctx, userKey(j.UserID), redis.Z{Score: score, Member: j.ID})
		pipe.Expire(ctx, userKey(j.UserID), s.ttl)
		pipe.ZAdd(ctx, statusKey(j.Status), redis.Z{Score: score, Member: j.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("job: create %s: %w: %w", j.ID, ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("job: get %s: %w: %w", id, ErrStoreUnavailable, err)
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("job: decode %s: %w", id, err)
	}
	return &j, nil
}

// Update replaces the stored record, moving the job between status indexes
// when its state changed since the last write.
func (s *RedisStore) Update(ctx context.Context, j *Job) error {
	prev, err := s.Get(ctx, j.ID)
	if err != nil {
		return err
	}
	return s.commit(ctx, j, prev.Status)
}

// commit writes the record and repairs the status index in one transaction.
func (s *RedisStore) commit(ctx context.Context, j *Job, prevStatus Status) error {
	j.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("job: encode %s: %w", j.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(j.ID), payload, s.ttl)
		if prevStatus != j.Status {
			pipe.ZRem(ctx, statusKey(prevStatus), j.ID)
			pipe.ZAdd(ctx, statusKey(j.Status), redis.Z{Score: scoreFor(j.CreatedAt), Member: j.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("job: update %s: %w: %w", j.ID, ErrStoreUnavailable, err)
	}
	return nil
}

// mutate loads the job, applies fn and commits the result.
func (s *RedisStore) mutate(ctx context.Context, id string, fn func(*Job) error) (*Job, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := j.Status
	if err := fn(j); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, j, prev); err != nil {
		return nil, err
	}
	return j, nil
}

// MarkStarted moves a PENDING job to STARTED. Repeated calls within the same
// attempt leave the record untouched.
func (s *RedisStore) MarkStarted(ctx context.Context, id string) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		if j.Status == StatusStarted || j.Status == StatusProcessing {
			return nil
		}
		if err := j.TransitionTo(StatusStarted); err != nil {
			return err
		}
		j.Message = "Processing started"
		return nil
	})
}

// MarkProgress records progress, flipping STARTED to PROCESSING on the first
// call. Progress is clamped to [0, 1] and never decreases within an attempt.
func (s *RedisStore) MarkProgress(ctx context.Context, id string, progress float64, message string) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		if j.Status == StatusStarted {
			if err := j.TransitionTo(StatusProcessing); err != nil {
				return err
			}
		} else if j.Status != StatusProcessing {
			return fmt.Errorf("%w: progress on %s", ErrInvalidTransition, j.Status)
		}
		if progress > 1 {
			progress = 1
		}
		if progress > j.Progress {
			j.Progress = progress
		}
		j.Message = message
		return nil
	})
}

// MarkSuccess finalizes the job with its result bundle.
func (s *RedisStore) MarkSuccess(ctx context.Context, id string, result Result) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		if err := j.TransitionTo(StatusSuccess); err != nil {
			return err
		}
		j.Progress = 1
		j.Message = "Video generation completed"
		r := result
		j.Result = &r
		return nil
	})
}

// MarkFailure records the failure message and optional stage trace.
func (s *RedisStore) MarkFailure(ctx context.Context, id string, errMsg, trace string) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		if err := j.TransitionTo(StatusFailure); err != nil {
			return err
		}
		j.Message = "Video generation failed"
		j.Error = errMsg
		j.ErrorTrace = trace
		return nil
	})
}

// MarkCancelled moves the job to CANCELLED. Jobs already in a terminal state
// are left as they are.
func (s *RedisStore) MarkCancelled(ctx context.Context, id string) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		if j.Status.IsTerminal() {
			return nil
		}
		if err := j.TransitionTo(StatusCancelled); err != nil {
			return err
		}
		j.Message = "Job cancelled"
		return nil
	})
}

// MarkRequeued parks an interrupted attempt back in PENDING. The retry
// counter is untouched: a worker shutdown is not a pipeline failure.
func (s *RedisStore) MarkRequeued(ctx context.Context, id string) (*Job, error) {
	return s.mutate(ctx, id, func(j *Job) error {
		return j.Requeue()
	})
}

// Delete removes the record and all its index entries.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	j, err := s.Get(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, jobKey(id))
		pipe.ZRem(ctx, userKey(j.UserID), id)
		pipe.ZRem(ctx, statusKey(j.Status), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("job: delete %s: %w: %w", id, ErrStoreUnavailable, err)
	}
	return true, nil
}

// ListByUser returns the user's jobs ordered by creation time descending.
func (s *RedisStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Job, error) {
	if limit <= 0 {
		return []*Job{}, nil
	}
	stop := int64(offset + limit - 1)
	ids, err := s.client.ZRevRange(ctx, userKey(userID), int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("job: list user %s: %w: %w", userID, ErrStoreUnavailable, err)
	}
	return s.fetch(ctx, ids)
}

// ListByStatus returns jobs in the given state ordered by creation time
// ascending. A non-positive limit returns the full index.
func (s *RedisStore) ListByStatus(ctx context.Context, status Status, limit int) ([]*Job, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	ids, err := s.client.ZRange(ctx, statusKey(status), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("job: list status %s: %w: %w", status, ErrStoreUnavailable, err)
	}
	return s.fetch(ctx, ids)
}

// fetch resolves index entries to records, skipping entries whose record
// already expired.
func (s *RedisStore) fetch(ctx context.Context, ids []string) ([]*Job, error) {
	if len(ids) == 0 {
		return []*Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("job: fetch: %w: %w", ErrStoreUnavailable, err)
	}

	jobs := make([]*Job, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var j Job
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			continue
		}
		jobs = append(jobs, &j)
	}
	return jobs, nil
}

// CountsByStatus returns the number of jobs per state, including zeroes.
func (s *RedisStore) CountsByStatus(ctx context.Context) (map[Status]int64, error) {
	cmds := make(map[Status]*redis.IntCmd, len(Statuses))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, st := range Statuses {
			cmds[st] = pipe.ZCard(ctx, statusKey(st))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("job: counts: %w: %w", ErrStoreUnavailable, err)
	}

	counts := make(map[Status]int64, len(Statuses))
	for st, cmd := range cmds {
		counts[st] = cmd.Val()
	}
	return counts, nil
}

// EvictOlderThan removes terminal jobs created more than age ago together
// with their index entries. Index entries whose record already expired are
// dropped without counting.
func (s *RedisStore) EvictOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := strconv.FormatInt(time.Now().UTC().Add(-age).UnixMicro(), 10)
	evicted := 0

	for _, st := range []Status{StatusSuccess, StatusFailure, StatusCancelled} {
		ids, err := s.client.ZRangeByScore(ctx, statusKey(st), &redis.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
		if err != nil {
			return evicted, fmt.Errorf("job: evict scan %s: %w: %w", st, ErrStoreUnavailable, err)
		}

		for _, id := range ids {
			j, err := s.Get(ctx, id)
			if errors.Is(err, ErrJobNotFound) {
				if err := s.client.ZRem(ctx, statusKey(st), id).Err(); err != nil {
					return evicted, fmt.Errorf("job: evict %s: %w: %w", id, ErrStoreUnavailable, err)
				}
				continue
			}
			if err != nil {
				return evicted, err
			}

			_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, jobKey(id))
				pipe.ZRem(ctx, userKey(j.UserID), id)
				pipe.ZRem(ctx, statusKey(st), id)
				return nil
			})
			if err != nil {
				return evicted, fmt.Errorf("job: evict %s: %w: %w", id, ErrStoreUnavailable, err)
			}
			evicted++
		}
	}
	return evicted, nil
}

// Healthy reports whether Redis answers a ping.
func (s *RedisStore) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
