package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whisky55/rede-social/middleware"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/testutils"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()
	os.Exit(m.Run())
}

func startServer(t *testing.T, env *testutils.Env) *httptest.Server {
	r := testutils.SetupTestRouter()
	h := New(env.Hub, nil)
	r.GET("/ws", middleware.JWTAuth(testutils.TestJWTSecret), h.Subscribe)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query url.Values) *websocket.Conn {
	query.Set("access_token", testutils.Token(t, "ana", "Ana", "ana@example.com"))
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	return conn
}

func TestSubscribe_ReceivesFilteredEvents(t *testing.T) {
	env := testutils.NewTestEnv(t)
	ctx := context.Background()
	for _, id := range []string{"ana", "bia"} {
		_, _, err := env.Service.EnsureProfile(ctx, social.Identity{UserID: id, Name: id}, models.UserCreate{})
		require.NoError(t, err)
	}
	srv := startServer(t, env)

	conn := dial(t, srv, url.Values{"author": {"bia"}})
	defer conn.Close()
	require.Eventually(t, func() bool { return env.Hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	_, err := env.Service.CreatePost(ctx, "ana", models.PostCreate{Description: "não", ImageURL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	post, err := env.Service.CreatePost(ctx, "bia", models.PostCreate{Description: "sim", ImageURL: "https://cdn.example.com/b.jpg"})
	require.NoError(t, err)
	_, err = env.Service.ToggleLike(ctx, post.ID, "ana")
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var created realtime.Event
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, realtime.PostCreated, created.Type)
	assert.Equal(t, post.ID, created.DocID)

	var liked realtime.Event
	require.NoError(t, conn.ReadJSON(&liked))
	assert.Equal(t, realtime.PostUpdated, liked.Type)
	require.NotNil(t, liked.Post)
	assert.Equal(t, 1, liked.Post.LikesCount)
	assert.True(t, liked.Version > created.Version)
}

func TestSubscribe_ReleasedOnDisconnect(t *testing.T) {
	env := testutils.NewTestEnv(t)
	srv := startServer(t, env)

	conn := dial(t, srv, url.Values{})
	require.Eventually(t, func() bool { return env.Hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return env.Hub.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSubscribe_HubClosed(t *testing.T) {
	env := testutils.NewTestEnv(t)
	srv := startServer(t, env)

	conn := dial(t, srv, url.Values{})
	defer conn.Close()
	require.Eventually(t, func() bool { return env.Hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	env.Hub.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestSubscribe_RequiresToken(t *testing.T) {
	env := testutils.NewTestEnv(t)
	srv := startServer(t, env)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFilterFromQuery(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/ws?author=a&post=p&user=u&types=post.created,%20user.updated,", nil)

	f := FilterFromQuery(c)
	assert.Equal(t, "a", f.AuthorID)
	assert.Equal(t, "p", f.PostID)
	assert.Equal(t, "u", f.UserID)
	assert.Equal(t, []realtime.EventType{realtime.PostCreated, realtime.UserUpdated}, f.Types)
}

func TestCheckOrigin(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://app.example.com")

	assert.True(t, checkOrigin(nil)(req))
	assert.True(t, checkOrigin([]string{"https://app.example.com"})(req))
	assert.False(t, checkOrigin([]string{"https://other.example.com"})(req))
}
