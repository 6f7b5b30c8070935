package p2p

import (
	"context"
	"fmt"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// MessageHandler is called for every message on a subscribed topic that was
// not published by this host.
type MessageHandler func(from peer.ID, data []byte) error

// Gossip manages the pubsub topics of one chain network. Topic names are
// prefixed with the chain protocol id.
type Gossip struct {
	ps        *pubsub.PubSub
	namespace string
	self      peer.ID
	logger    *logging.ColoredLogger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*subscription
}

type subscription struct {
	sub    *pubsub.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGossip creates a gossip manager for namespace.
func NewGossip(ps *pubsub.PubSub, namespace string, self peer.ID, logger *logging.ColoredLogger) *Gossip {
	return &Gossip{
		ps:        ps,
		namespace: namespace,
		self:      self,
		logger:    logger,
		topics:    make(map[string]*pubsub.Topic),
		subs:      make(map[string]*subscription),
	}
}

// TopicName returns the namespaced topic name.
func (g *Gossip) TopicName(topic string) string {
	return fmt.Sprintf("%s.%s", g.namespace, topic)
}

// joinLocked gets an existing topic or joins it. g.mu must be held.
func (g *Gossip) joinLocked(name string) (*pubsub.Topic, error) {
	if topic, ok := g.topics[name]; ok {
		return topic, nil
	}
	topic, err := g.ps.Join(name)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic: %w", err)
	}
	g.topics[name] = topic
	return topic, nil
}

// Publish publishes data on topic.
func (g *Gossip) Publish(ctx context.Context, topic string, data []byte) error {
	g.mu.Lock()
	t, err := g.joinLocked(g.TopicName(topic))
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to get topic for publishing: %w", err)
	}

	if err := t.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe starts delivering messages on topic to handler. A topic has at
// most one handler.
func (g *Gossip) Subscribe(topic string, handler MessageHandler) error {
	name := g.TopicName(topic)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.subs[name]; exists {
		return fmt.Errorf("already subscribed to %s", name)
	}

	t, err := g.joinLocked(name)
	if err != nil {
		return err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &subscription{sub: sub, cancel: cancel, done: make(chan struct{})}
	g.subs[name] = s

	go func() {
		defer close(s.done)
		defer sub.Cancel()

		for {
			msg, err := sub.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			from := msg.GetFrom()
			if from == g.self {
				continue
			}
			if err := handler(from, msg.Data); err != nil {
				g.logger.ComponentDebug(logging.ComponentLibP2P, "Dropped gossip message",
					zap.String("topic", name),
					zap.String("from", from.String()),
					zap.Error(err),
				)
			}
		}
	}()

	return nil
}

// Topics returns the topics with an active subscription.
func (g *Gossip) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	prefix := g.namespace + "."
	out := make([]string, 0, len(g.subs))
	for name := range g.subs {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			out = append(out, name[len(prefix):])
		}
	}
	return out
}

// Close cancels all subscriptions and leaves all topics.
func (g *Gossip) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range g.subs {
		s.cancel()
		<-s.done
	}
	g.subs = make(map[string]*subscription)

	for _, t := range g.topics {
		t.Close()
	}
	g.topics = make(map[string]*pubsub.Topic)
	return nil
}
