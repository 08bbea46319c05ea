package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the live-board entry for one occupied station.
type ActiveSession struct {
	SessionID   int64     `json:"session_id"`
	StationID   int64     `json:"station_id"`
	StationName string    `json:"station_name"`
	PricingTier string    `json:"pricing_tier"`
	StartedAt   time.Time `json:"started_at"`
}

// LiveBoard keeps a per-venue hash of active sessions in redis for the
// floor dashboard. It is a best-effort read model: billing never reads
// it, and a failed write only costs the dashboard a refresh.
type LiveBoard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLiveBoard(client *redis.Client, ttl time.Duration) *LiveBoard {
	return &LiveBoard{client: client, ttl: ttl}
}

func (b *LiveBoard) key(venueID int64) string {
	return fmt.Sprintf("board:venue:%d", venueID)
}

func (b *LiveBoard) Save(ctx context.Context, venueID int64, entry ActiveSession) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := b.key(venueID)
	if err := b.client.HSet(ctx, key, fmt.Sprintf("%d", entry.StationID), data).Err(); err != nil {
		return err
	}
	return b.client.Expire(ctx, key, b.ttl).Err()
}

func (b *LiveBoard) Remove(ctx context.Context, venueID, stationID int64) error {
	return b.client.HDel(ctx, b.key(venueID), fmt.Sprintf("%d", stationID)).Err()
}

func (b *LiveBoard) List(ctx context.Context, venueID int64) ([]ActiveSession, error) {
	values, err := b.client.HGetAll(ctx, b.key(venueID)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]ActiveSession, 0, len(values))
	for _, raw := range values {
		var entry ActiveSession
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
