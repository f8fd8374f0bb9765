// Package redis tracks reporter activity over a rolling window using a
// sorted set per reporter, scored by report timestamp.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veriwork/trustengine/internal/domain"
)

const keyPrefix = "reporter:activity:"

// ReporterActivity implements repository.ReporterActivity on Redis.
type ReporterActivity struct {
	client *redis.Client
	window time.Duration
}

// NewReporterActivity creates a Redis-backed reporter activity tracker with
// the abuse-pattern window.
func NewReporterActivity(client *redis.Client) *ReporterActivity {
	return &ReporterActivity{
		client: client,
		window: domain.ExcessiveReportWindow,
	}
}

// RecordReport registers one report and returns how many the reporter has
// filed inside the window ending at the given time. Expired entries are
// trimmed on every call, so the set never grows past the window.
func (r *ReporterActivity) RecordReport(ctx context.Context, reporterID string, at time.Time) (int, error) {
	key := keyPrefix + reporterID
	cutoff := at.Add(-r.window)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	// Members must be unique or two reports filed in the same nanosecond
	// collapse into one; the timestamp lives in the score.
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: uuid.NewString(),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record reporter activity: %w", err)
	}
	return int(count.Val()), nil
}
