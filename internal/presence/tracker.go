package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietbiz/crm-api/internal/config"
	"go.uber.org/zap"
)

const memberKeyPrefix = "presence:member:"

// Member is one online user as shown in the presence bar.
type Member struct {
	UserID   string    `json:"userId"`
	FullName string    `json:"fullName"`
	Page     string    `json:"page,omitempty"`
	LastSeen time.Time `json:"lastSeen"`
}

// Snapshot is the full member list broadcast to subscribers.
type Snapshot struct {
	Members []Member  `json:"members"`
	At      time.Time `json:"at"`
}

// Tracker keeps online state in Redis. Each heartbeat refreshes a per-user
// key with a TTL; a user who stops heartbeating simply ages out. Every state
// change is published on a pub/sub channel so all API instances rebroadcast
// the fresh list to their SSE subscribers.
type Tracker struct {
	client *redis.Client
	hub    *Hub
	ttl    time.Duration
	chName string
	logger *zap.Logger
}

func NewTracker(cfg *config.RedisConfig, presenceCfg *config.PresenceConfig, hub *Hub, logger *zap.Logger) (*Tracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Tracker{
		client: client,
		hub:    hub,
		ttl:    time.Duration(presenceCfg.HeartbeatTTL) * time.Second,
		chName: presenceCfg.Channel,
		logger: logger,
	}, nil
}

// Heartbeat marks a user online, refreshing their TTL and notifying all
// instances.
func (t *Tracker) Heartbeat(ctx context.Context, member Member) error {
	member.LastSeen = time.Now().UTC()
	data, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("failed to marshal member: %w", err)
	}
	if err := t.client.Set(ctx, memberKeyPrefix+member.UserID, data, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store heartbeat: %w", err)
	}
	return t.publish(ctx)
}

// Leave removes a user immediately instead of waiting for the TTL.
func (t *Tracker) Leave(ctx context.Context, userID string) error {
	if err := t.client.Del(ctx, memberKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return t.publish(ctx)
}

// Snapshot reads the current member list from Redis.
func (t *Tracker) Snapshot(ctx context.Context) (*Snapshot, error) {
	var members []Member

	iter := t.client.Scan(ctx, 0, memberKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := t.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Key expired between scan and get
			continue
		}
		var member Member
		if err := json.Unmarshal(data, &member); err != nil {
			t.logger.Warn("skipping malformed presence entry", zap.String("key", iter.Val()))
			continue
		}
		members = append(members, member)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan presence keys: %w", err)
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].FullName < members[j].FullName
	})

	return &Snapshot{Members: members, At: time.Now().UTC()}, nil
}

// Run subscribes to the sync channel and rebroadcasts the full list on each
// event. It blocks until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	sub := t.client.Subscribe(ctx, t.chName)
	defer sub.Close()

	t.logger.Info("presence tracker started", zap.String("channel", t.chName))

	// Periodic rebroadcast catches TTL expiries, which Redis does not
	// publish for.
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			t.broadcastSnapshot(ctx)
		case <-ticker.C:
			t.broadcastSnapshot(ctx)
		}
	}
}

func (t *Tracker) broadcastSnapshot(ctx context.Context) {
	snapshot, err := t.Snapshot(ctx)
	if err != nil {
		t.logger.Warn("failed to build presence snapshot", zap.Error(err))
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.logger.Warn("failed to marshal presence snapshot", zap.Error(err))
		return
	}
	t.hub.Broadcast(data)
}

func (t *Tracker) publish(ctx context.Context) error {
	if err := t.client.Publish(ctx, t.chName, "sync").Err(); err != nil {
		return fmt.Errorf("failed to publish presence sync: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (t *Tracker) Close() error {
	return t.client.Close()
}
