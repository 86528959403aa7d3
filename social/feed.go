package social

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/whisky55/rede-social/config"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/store"
)

type FeedScope string

const (
	ScopeAll       FeedScope = "all"
	ScopeFollowing FeedScope = "following"
)

// Page est une page du feed. NextCursor est vide quand il n'y a plus rien à lire.
type Page struct {
	Posts      []models.Post `json:"posts"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type cursorPayload struct {
	T  int64  `json:"t"`
	ID string `json:"id"`
}

func EncodeCursor(c store.Cursor) string {
	raw, _ := json.Marshal(cursorPayload{T: c.CreatedAt.UnixNano(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(s string) (*store.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, validationf("invalid cursor")
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" {
		return nil, validationf("invalid cursor")
	}
	return &store.Cursor{CreatedAt: time.Unix(0, p.T).UTC(), ID: p.ID}, nil
}

// GetFeed renvoie les posts du plus récent au plus ancien (id croissant en cas d'égalité).
// ScopeFollowing limite aux auteurs suivis par viewerID plus ses propres posts.
func (s *Service) GetFeed(ctx context.Context, viewerID string, scope FeedScope, cursor string, limit int) (*Page, error) {
	q := store.PostQuery{}
	switch scope {
	case "", ScopeAll:
	case ScopeFollowing:
		viewer, err := s.getUser(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		q.AuthorIDs = append([]string{viewer.ID}, viewer.Following...)
	default:
		return nil, validationf("unknown feed scope %q", scope)
	}
	return s.page(ctx, q, cursor, limit)
}

// GetUserPosts renvoie les posts d'un seul auteur, dans l'ordre du feed
func (s *Service) GetUserPosts(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	if userID == "" {
		return nil, validationf("user id is required")
	}
	return s.page(ctx, store.PostQuery{AuthorIDs: []string{userID}}, cursor, limit)
}

func (s *Service) page(ctx context.Context, q store.PostQuery, cursor string, limit int) (*Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = s.opts.PageSize
	case limit > config.MaxFeedPageSize:
		limit = config.MaxFeedPageSize
	}
	q.After = after
	q.Limit = limit + 1

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	posts, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, storeError(err, "posts")
	}

	if posts == nil {
		posts = []models.Post{}
	}
	page := &Page{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		last := page.Posts[limit-1]
		page.NextCursor = EncodeCursor(store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
