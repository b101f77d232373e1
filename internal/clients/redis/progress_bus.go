package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

// ProgressMessage is the fan-out payload published on every phase or chunk
// transition so interested frontends can subscribe instead of polling.
type ProgressMessage struct {
	BrandID      uuid.UUID       `json:"brand_id"`
	CollectionID uuid.UUID       `json:"collection_id"`
	DocumentID   uuid.UUID       `json:"document_id,omitempty"`
	RunID        uuid.UUID       `json:"run_id,omitempty"`
	Event        string          `json:"event"`
	Data         json.RawMessage `json:"data,omitempty"`
}

type ProgressBus interface {
	Publish(ctx context.Context, msg ProgressMessage) error
	Close() error
}

type progressBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewProgressBus(log *logger.Logger) (ProgressBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_PROGRESS_CHANNEL"))
	if ch == "" {
		ch = "extraction_progress"
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

	return &progressBus{
		log:     log.With("service", "RedisProgressBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *progressBus) Publish(ctx context.Context, msg ProgressMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis progress bus not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *progressBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
