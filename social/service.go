// Package social porte les règles du réseau: cycle de vie des posts, likes, graphe
// d'abonnements et feed. Toute mutation passe par une transaction optimiste sur le store
// (voir atomically), puis les changements validés sont publiés sur le canal temps réel.
package social

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/store"
)

type Publisher interface {
	Publish(e realtime.Event)
}

// MediaCleaner reçoit les demandes de suppression d'images orphelines
type MediaCleaner interface {
	Delete(ctx context.Context, ref string) error
}

type Options struct {
	// Timeout borne chaque appel au store
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	PageSize    int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Backoff <= 0 {
		o.Backoff = 10 * time.Millisecond
	}
	if o.PageSize <= 0 {
		o.PageSize = 20
	}
	return o
}

type Service struct {
	store  store.Store
	events Publisher
	media  MediaCleaner
	opts   Options
	clock  *clock
	newID  func() string
}

func NewService(st store.Store, events Publisher, media MediaCleaner, opts Options) *Service {
	return &Service{
		store:  st,
		events: events,
		media:  media,
		opts:   opts.withDefaults(),
		clock:  &clock{now: time.Now},
		newID:  uuid.NewString,
	}
}

func (s *Service) publish(events ...realtime.Event) {
	if s.events == nil {
		return
	}
	for _, e := range events {
		s.events.Publish(e)
	}
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *Service) getUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	u, err := s.store.GetUser(ctx, id)
	return u, storeError(err, "user")
}

func (s *Service) getPost(ctx context.Context, id string) (*models.Post, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.store.GetPost(ctx, id)
	return p, storeError(err, "post")
}

// clock fournit des dates strictement croissantes à la milliseconde, précision
// commune à Postgres et MongoDB.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
