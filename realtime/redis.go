package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/whisky55/rede-social/utils"
)

const (
	DefaultRedisChannel = "rede-social:events"
	bridgeQueueSize     = 1024
)

// RedisBridge relie les hubs de plusieurs instances via un canal Redis Pub/Sub.
// Les événements locaux sont publiés dans l'ordre par une seule goroutine; les
// événements distants sont réinjectés dans le hub local.
type RedisBridge struct {
	client  *redis.Client
	hub     *Hub
	channel string
	origin  string

	pubsub *redis.PubSub
	queue  chan Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func NewRedisBridge(client *redis.Client, hub *Hub, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		queue:   make(chan Event, bridgeQueueSize),
		done:    make(chan struct{}),
	}
}

func (b *RedisBridge) Start() error {
	b.pubsub = b.client.Subscribe(b.channel)
	if _, err := b.pubsub.Receive(); err != nil {
		_ = b.pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}
	b.hub.SetForwarder(b.enqueue)

	b.wg.Add(2)
	go b.publishLoop()
	go b.receiveLoop()

	utils.LogSuccess("Redis event bridge started on channel " + b.channel)
	return nil
}

func (b *RedisBridge) enqueue(e Event) {
	select {
	case b.queue <- e:
	case <-b.done:
	default:
		utils.Logger.WithFields(logrus.Fields{
			"source":   "realtime",
			"event_id": e.ID,
		}).Warn("Redis bridge queue full, event not relayed")
	}
}

func (b *RedisBridge) publishLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case e := <-b.queue:
			payload, err := b.encode(e)
			if err != nil {
				utils.LogError(err, "Error encoding event for redis")
				continue
			}
			if err := b.client.Publish(b.channel, payload).Err(); err != nil {
				utils.LogError(err, "Error publishing event to redis")
			}
		}
	}
}

func (b *RedisBridge) receiveLoop() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		b.handleMessage(msg.Payload)
	}
}

func (b *RedisBridge) encode(e Event) ([]byte, error) {
	e.Origin = b.origin
	return json.Marshal(e)
}

// handleMessage ignore les messages émis par cette instance
func (b *RedisBridge) handleMessage(payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		utils.LogError(err, "Invalid event received from redis")
		return
	}
	if e.Origin == b.origin {
		return
	}
	e.Origin = ""
	b.hub.Inject(e)
}

func (b *RedisBridge) Close() error {
	var err error
	b.once.Do(func() {
		b.hub.SetForwarder(nil)
		close(b.done)
		if b.pubsub != nil {
			err = b.pubsub.Close()
		}
		b.wg.Wait()
	})
	return err
}
