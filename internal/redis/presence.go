package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceTracker records which connections are currently open.
type PresenceTracker interface {
	SetOnline(ctx context.Context, connectionID, clientID string) error
	SetOffline(ctx context.Context, connectionID string) error
	Heartbeat(ctx context.Context, connectionID string) error
}

// ConnectionPresence is stored as JSON under presence:conn:<connection id>.
type ConnectionPresence struct {
	ConnectionID string    `json:"connection_id"`
	ClientID     string    `json:"client_id"`
	ConnectedAt  time.Time `json:"connected_at"`
}

var ErrPresenceExpired = errors.New("presence record expired")

const (
	presenceKeyPrefix = "presence:conn:"
	presenceOnlineSet = "presence:online"
)

// PresenceStore keeps presence in Redis. Entries expire after ttl unless
// refreshed by Heartbeat, so ttl must be longer than the heartbeat interval.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

func (p *PresenceStore) SetOnline(ctx context.Context, connectionID, clientID string) error {
	data, err := json.Marshal(ConnectionPresence{
		ConnectionID: connectionID,
		ClientID:     clientID,
		ConnectedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, presenceKeyPrefix+connectionID, data, p.ttl)
	pipe.SAdd(ctx, presenceOnlineSet, connectionID)
	_, err = pipe.Exec(ctx)
	return err
}

func (p *PresenceStore) SetOffline(ctx context.Context, connectionID string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, presenceKeyPrefix+connectionID)
	pipe.SRem(ctx, presenceOnlineSet, connectionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Heartbeat refreshes the TTL of a live connection. It returns
// ErrPresenceExpired when the record is already gone.
func (p *PresenceStore) Heartbeat(ctx context.Context, connectionID string) error {
	refreshed, err := p.client.Expire(ctx, presenceKeyPrefix+connectionID, p.ttl).Result()
	if err != nil {
		return err
	}
	if !refreshed {
		return ErrPresenceExpired
	}
	return nil
}

// get returns the stored presence for a connection, or nil when absent.
func (p *PresenceStore) get(ctx context.Context, connectionID string) (*ConnectionPresence, error) {
	raw, err := p.client.Get(ctx, presenceKeyPrefix+connectionID).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var presence ConnectionPresence
	if err := json.Unmarshal(raw, &presence); err != nil {
		return nil, err
	}
	return &presence, nil
}

// OnlineCount returns the number of connections marked online.
func (p *PresenceStore) OnlineCount(ctx context.Context) (int64, error) {
	return p.client.SCard(ctx, presenceOnlineSet).Result()
}

// NoOpPresence is used when presence tracking is disabled.
type NoOpPresence struct{}

func NewNoOpPresence() *NoOpPresence {
	return &NoOpPresence{}
}

func (NoOpPresence) SetOnline(ctx context.Context, connectionID, clientID string) error {
	return nil
}

func (NoOpPresence) SetOffline(ctx context.Context, connectionID string) error {
	return nil
}

func (NoOpPresence) Heartbeat(ctx context.Context, connectionID string) error {
	return nil
}
