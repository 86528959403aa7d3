package realtime

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/whisky55/rede-social/models"
	"lukechampine.com/blake3"
)

type EventType string

const (
	PostCreated EventType = "post.created"
	PostUpdated EventType = "post.updated"
	PostDeleted EventType = "post.deleted"
	UserUpdated EventType = "user.updated"
)

// Event décrit un changement validé d'un document.
// Version est la version du document après le changement.
type Event struct {
	ID       string       `json:"id"`
	Type     EventType    `json:"type"`
	DocID    string       `json:"docId"`
	AuthorID string       `json:"authorId,omitempty"`
	Version  int64        `json:"version"`
	Post     *models.Post `json:"post,omitempty"`
	User     *models.User `json:"user,omitempty"`
	At       time.Time    `json:"at"`
	Origin   string       `json:"origin,omitempty"`
}

func NewPostEvent(t EventType, p *models.Post) Event {
	return Event{
		ID:       eventID(t, p.ID, p.Version),
		Type:     t,
		DocID:    p.ID,
		AuthorID: p.UserID,
		Version:  p.Version,
		Post:     p.Clone(),
		At:       p.UpdatedAt,
	}
}

// NewPostDeletedEvent porte la version qu'aurait eue le post après sa suppression
func NewPostDeletedEvent(p *models.Post, at time.Time) Event {
	version := p.Version + 1
	return Event{
		ID:       eventID(PostDeleted, p.ID, version),
		Type:     PostDeleted,
		DocID:    p.ID,
		AuthorID: p.UserID,
		Version:  version,
		At:       at,
	}
}

func NewUserEvent(u *models.User) Event {
	return Event{
		ID:      eventID(UserUpdated, u.ID, u.Version),
		Type:    UserUpdated,
		DocID:   u.ID,
		Version: u.Version,
		User:    u.Clone(),
		At:      u.UpdatedAt,
	}
}

func (e Event) IsPostEvent() bool {
	return e.Type != UserUpdated
}

func (e Event) key() string {
	if e.IsPostEvent() {
		return "posts/" + e.DocID
	}
	return "users/" + e.DocID
}

// eventID est déterministe: la même modification relayée deux fois garde le même id
func eventID(t EventType, docID string, version int64) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s|%s|%d", t, docID, version)))
	return hex.EncodeToString(sum[:16])
}

// Filter sélectionne les événements d'un abonnement. Un filtre vide reçoit tout.
type Filter struct {
	AuthorID string
	PostID   string
	UserID   string
	Types    []EventType
}

func (f Filter) Match(e Event) bool {
	if len(f.Types) > 0 && !hasType(f.Types, e.Type) {
		return false
	}
	postFiltered := f.AuthorID != "" || f.PostID != ""

	if !e.IsPostEvent() {
		if f.UserID != "" {
			return f.UserID == e.DocID
		}
		return !postFiltered
	}

	// un abonnement limité à un profil ne reçoit pas les posts
	if f.UserID != "" && !postFiltered {
		return false
	}
	if f.PostID != "" && f.PostID != e.DocID {
		return false
	}
	if f.AuthorID != "" && f.AuthorID != e.AuthorID {
		return false
	}
	return true
}

func hasType(types []EventType, t EventType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
