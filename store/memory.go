package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/whisky55/rede-social/models"
)

// Memory garde les documents en mémoire. Utilisé par les tests et STORE_DRIVER=memory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*models.User
	posts map[string]*models.Post
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

func (m *Memory) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u.Clone())
		}
	}
	return out, nil
}

func (m *Memory) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	authors := make(map[string]bool, len(q.AuthorIDs))
	for _, id := range q.AuthorIDs {
		authors[id] = true
	}

	m.mu.RLock()
	matched := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if len(authors) > 0 && !authors[p.UserID] {
			continue
		}
		if q.After != nil && !q.After.Follows(p) {
			continue
		}
		matched = append(matched, p.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return FeedLess(matched[i], matched[j]) })
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]models.Post, len(matched))
	for i, p := range matched {
		out[i] = *p
	}
	return out, nil
}

// Commit vérifie toutes les préconditions avant d'appliquer la moindre écriture
func (m *Memory) Commit(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range writes {
		if err := m.check(w); err != nil {
			return err
		}
	}
	for _, w := range writes {
		switch w.Kind {
		case CreateUser, UpdateUser:
			m.users[w.User.ID] = w.User.Clone()
		case CreatePost, UpdatePost:
			m.posts[w.Post.ID] = w.Post.Clone()
		case DeletePost:
			delete(m.posts, w.PostID)
		}
	}
	return nil
}

func (m *Memory) check(w Write) error {
	switch w.Kind {
	case CreateUser:
		if _, ok := m.users[w.User.ID]; ok {
			return fmt.Errorf("user %s already exists: %w", w.User.ID, ErrConflict)
		}
	case UpdateUser:
		cur, ok := m.users[w.User.ID]
		if !ok || cur.Version != w.Expected {
			return fmt.Errorf("user %s changed: %w", w.User.ID, ErrConflict)
		}
	case CreatePost:
		if _, ok := m.posts[w.Post.ID]; ok {
			return fmt.Errorf("post %s already exists: %w", w.Post.ID, ErrConflict)
		}
	case UpdatePost:
		cur, ok := m.posts[w.Post.ID]
		if !ok || cur.Version != w.Expected {
			return fmt.Errorf("post %s changed: %w", w.Post.ID, ErrConflict)
		}
	case DeletePost:
		cur, ok := m.posts[w.PostID]
		if !ok || cur.Version != w.Expected {
			return fmt.Errorf("post %s changed: %w", w.PostID, ErrConflict)
		}
	default:
		return fmt.Errorf("unsupported write kind %d", w.Kind)
	}
	return nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
