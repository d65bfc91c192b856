package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher is the subset of a redis client used for fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher mirrors events onto a per-project pub/sub channel so other
// processes can follow a generation they did not start.
type RedisPublisher struct {
	client    Publisher
	projectID string
}

func NewRedisPublisher(client Publisher, projectID string) *RedisPublisher {
	return &RedisPublisher{client: client, projectID: projectID}
}

// Channel returns the pub/sub channel used for a project.
func Channel(projectID string) string {
	return "generation:project:" + projectID
}

func (p *RedisPublisher) Emit(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	return p.client.Publish(pubCtx, Channel(p.projectID), data).Err()
}

// Subscriber is the subset of a redis client used to follow a project.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Follow relays events published for projectID to sink until a terminal
// event arrives or ctx ends.
func Follow(ctx context.Context, sub Subscriber, projectID string, sink Sink) error {
	ps := sub.Subscribe(ctx, Channel(projectID))
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel(projectID), err)
	}
	return relay(ctx, ps.Channel(), sink)
}

func relay(ctx context.Context, ch <-chan *redis.Message, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			if err := sink.Emit(ctx, evt); err != nil {
				return err
			}
			if evt.Type.IsTerminal() {
				return nil
			}
		}
	}
}

// ConnectRedis opens a client for addr, either host:port or a redis:// URL,
// and checks it with a ping.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr, DB: 0}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
