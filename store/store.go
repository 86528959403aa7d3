// Package store est l'adaptateur documentaire des collections "users" et "posts".
//
// Les lectures sont sans verrou. Les écritures passent toutes par Commit, qui applique
// un lot de documents en tout-ou-rien et refuse le lot entier (ErrConflict) dès qu'un
// document a changé de version depuis sa lecture.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/whisky55/rede-social/models"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("write conflict")
)

type WriteKind int

const (
	CreateUser WriteKind = iota + 1
	UpdateUser
	CreatePost
	UpdatePost
	DeletePost
)

func (k WriteKind) String() string {
	switch k {
	case CreateUser:
		return "create_user"
	case UpdateUser:
		return "update_user"
	case CreatePost:
		return "create_post"
	case UpdatePost:
		return "update_post"
	case DeletePost:
		return "delete_post"
	}
	return "unknown"
}

// Write est une écriture conditionnelle d'un document.
// Expected est la version lue par l'appelant (ignorée pour les créations).
type Write struct {
	Kind     WriteKind
	User     *models.User
	Post     *models.Post
	PostID   string
	Expected int64
}

func InsertUser(u *models.User) Write {
	normalizeUser(u)
	u.Version = 1
	return Write{Kind: CreateUser, User: u}
}

func ReplaceUser(u *models.User, expected int64) Write {
	normalizeUser(u)
	u.Version = expected + 1
	return Write{Kind: UpdateUser, User: u, Expected: expected}
}

func InsertPost(p *models.Post) Write {
	normalizePost(p)
	p.Version = 1
	p.LikesCount = len(p.Likes)
	return Write{Kind: CreatePost, Post: p}
}

func ReplacePost(p *models.Post, expected int64) Write {
	normalizePost(p)
	p.Version = expected + 1
	p.LikesCount = len(p.Likes)
	return Write{Kind: UpdatePost, Post: p, Expected: expected}
}

func RemovePost(id string, expected int64) Write {
	return Write{Kind: DeletePost, PostID: id, Expected: expected}
}

// les colonnes text[] sont NOT NULL: un ensemble nil doit être écrit comme {}
func normalizeUser(u *models.User) {
	if u.Followers == nil {
		u.Followers = pq.StringArray{}
	}
	if u.Following == nil {
		u.Following = pq.StringArray{}
	}
}

func normalizePost(p *models.Post) {
	if p.Likes == nil {
		p.Likes = pq.StringArray{}
	}
}

func (w Write) collection() string {
	if w.User != nil {
		return "users"
	}
	return "posts"
}

func (w Write) docID() string {
	switch {
	case w.User != nil:
		return w.User.ID
	case w.Post != nil:
		return w.Post.ID
	}
	return w.PostID
}

// ordered renvoie les écritures triées par (collection, id) pour que deux lots
// concurrents verrouillent toujours les lignes dans le même ordre.
func ordered(writes []Write) []Write {
	out := make([]Write, len(writes))
	copy(out, writes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].collection() != out[j].collection() {
			return out[i].collection() < out[j].collection()
		}
		return out[i].docID() < out[j].docID()
	})
	return out
}

// Cursor est une position dans l'ordre du feed (createdAt DESC, id ASC)
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Follows indique si p vient strictement après la position c dans l'ordre du feed
func (c Cursor) Follows(p *models.Post) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.ID > c.ID
	}
	return p.CreatedAt.Before(c.CreatedAt)
}

// PostQuery filtre les posts. AuthorIDs vide signifie tous les auteurs.
type PostQuery struct {
	AuthorIDs []string
	After     *Cursor
	Limit     int
}

// FeedLess est l'ordre total du feed: createdAt décroissant puis id croissant
func FeedLess(a, b *models.Post) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUsers ignore silencieusement les ids inconnus
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	Commit(ctx context.Context, writes []Write) error
	Close(ctx context.Context) error
}
