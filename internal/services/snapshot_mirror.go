package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

// SnapshotMirror publishes the metrics snapshot to a Redis channel for the
// UI layer. Delivery is best-effort; nothing in the core waits on it.
type SnapshotMirror struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewSnapshotMirror builds a mirror from REDIS_ADDR / REDIS_CHANNEL. A
// missing address is an error so main can wire the mirror as optional.
func NewSnapshotMirror(log *logger.Logger) (*SnapshotMirror, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "metrics_snapshot"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SnapshotMirror{
		log:     log.With("service", "SnapshotMirror"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (m *SnapshotMirror) Publish(ctx context.Context, snap types.MetricsSnapshot) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("snapshot mirror not initialized")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, m.channel, raw).Err()
}

func (m *SnapshotMirror) Close() {
	if m != nil && m.rdb != nil {
		_ = m.rdb.Close()
	}
}
