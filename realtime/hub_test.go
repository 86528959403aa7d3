package realtime

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/utils"
)

func TestMain(m *testing.M) {
	utils.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func post(id, author string, version int64) *models.Post {
	return &models.Post{ID: id, UserID: author, Version: version, UpdatedAt: time.Now()}
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case e := <-sub.Events():
		t.Fatalf("unexpected event %s %s", e.Type, e.DocID)
	default:
	}
}

func TestHub_FilterByAuthor(t *testing.T) {
	hub := NewHub(8)
	mine := hub.Subscribe(Filter{AuthorID: "u1"})
	all := hub.Subscribe(Filter{})

	hub.Publish(NewPostEvent(PostCreated, post("p1", "u1", 1)))
	hub.Publish(NewPostEvent(PostCreated, post("p2", "u2", 1)))

	assert.Equal(t, "p1", receive(t, mine).DocID)
	assertNoEvent(t, mine)

	assert.Equal(t, "p1", receive(t, all).DocID)
	assert.Equal(t, "p2", receive(t, all).DocID)
}

func TestHub_DropsDuplicatesAndStaleVersions(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(Filter{PostID: "p1"})

	hub.Publish(NewPostEvent(PostUpdated, post("p1", "u1", 3)))
	hub.Publish(NewPostEvent(PostUpdated, post("p1", "u1", 3)))
	hub.Publish(NewPostEvent(PostUpdated, post("p1", "u1", 2)))
	hub.Publish(NewPostDeletedEvent(post("p1", "u1", 3), time.Now()))

	first := receive(t, sub)
	assert.Equal(t, int64(3), first.Version)
	deleted := receive(t, sub)
	assert.Equal(t, PostDeleted, deleted.Type)
	assert.Equal(t, int64(4), deleted.Version)
	assertNoEvent(t, sub)
}

func TestHub_CloseIsIdempotentAndReleases(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(Filter{})
	assert.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())
	assert.NoError(t, sub.Err())

	_, ok := <-sub.Events()
	assert.False(t, ok)

	// publishing after close must not panic on the closed channel
	hub.Publish(NewPostEvent(PostCreated, post("p1", "u1", 1)))
}

func TestHub_SlowConsumerIsDisconnected(t *testing.T) {
	hub := NewHub(1)
	slow := hub.Subscribe(Filter{})

	hub.Publish(NewPostEvent(PostCreated, post("p1", "u1", 1)))
	hub.Publish(NewPostEvent(PostCreated, post("p2", "u1", 1)))

	assert.Equal(t, "p1", receive(t, slow).DocID)
	_, ok := <-slow.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, slow.Err(), ErrSlowConsumer)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHub_UserEvents(t *testing.T) {
	hub := NewHub(8)
	profile := hub.Subscribe(Filter{UserID: "u1"})
	posts := hub.Subscribe(Filter{AuthorID: "u1"})

	hub.Publish(NewUserEvent(&models.User{ID: "u1", Version: 2}))
	hub.Publish(NewPostEvent(PostCreated, post("p1", "u1", 1)))

	assert.Equal(t, UserUpdated, receive(t, profile).Type)
	assertNoEvent(t, profile)
	assert.Equal(t, PostCreated, receive(t, posts).Type)
	assertNoEvent(t, posts)
}

func TestHub_ForwarderOnlyForLocalEvents(t *testing.T) {
	hub := NewHub(8)
	var mu sync.Mutex
	var forwarded []string
	hub.SetForwarder(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		forwarded = append(forwarded, e.DocID)
	})

	hub.Publish(NewPostEvent(PostCreated, post("local", "u1", 1)))
	hub.Inject(NewPostEvent(PostCreated, post("remote", "u2", 1)))
	hub.Publish(NewPostEvent(PostCreated, post("local", "u1", 1)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"local"}, forwarded)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(Filter{})
	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), ErrHubClosed)

	late := hub.Subscribe(Filter{})
	_, ok = <-late.Events()
	assert.False(t, ok)
}

func TestEventIDIsDeterministic(t *testing.T) {
	a := NewPostEvent(PostUpdated, post("p1", "u1", 2))
	b := NewPostEvent(PostUpdated, post("p1", "u1", 2))
	c := NewPostEvent(PostUpdated, post("p1", "u1", 3))

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Len(t, a.ID, 32)
}

func TestRedisBridge_HandleMessage(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(Filter{})
	bridge := NewRedisBridge(nil, hub, "")

	own, err := bridge.encode(NewPostEvent(PostCreated, post("mine", "u1", 1)))
	require.NoError(t, err)
	bridge.handleMessage(string(own))
	assertNoEvent(t, sub)

	remote := NewPostEvent(PostCreated, post("theirs", "u2", 1))
	remote.Origin = "other-instance"
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	bridge.handleMessage(string(payload))

	got := receive(t, sub)
	assert.Equal(t, "theirs", got.DocID)
	assert.Empty(t, got.Origin)

	bridge.handleMessage("not json")
	assertNoEvent(t, sub)
}
