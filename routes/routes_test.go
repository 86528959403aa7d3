package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/testutils"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()
	os.Exit(m.Run())
}

type client struct {
	t     *testing.T
	r     *gin.Engine
	token string
}

func (c client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_EndToEnd(t *testing.T) {
	env := testutils.NewTestEnv(t)
	r := SetupRouter(Deps{Service: env.Service, Hub: env.Hub, JWTSecret: testutils.TestJWTSecret})

	anon := client{t: t, r: r}
	ana := client{t: t, r: r, token: testutils.Token(t, "ana", "Ana", "ana@example.com")}
	bia := client{t: t, r: r, token: testutils.Token(t, "bia", "Bia", "bia@example.com")}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/feed", nil).Code)

	require.Equal(t, http.StatusCreated, ana.do(http.MethodPost, "/users/me", nil).Code)
	require.Equal(t, http.StatusCreated, bia.do(http.MethodPost, "/users/me", nil).Code)

	w := ana.do(http.MethodPost, "/posts", models.PostCreate{Description: "Leg day", Location: "Academia", ImageURL: "https://cdn.example.com/leg.jpg"})
	require.Equal(t, http.StatusCreated, w.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))

	assert.Equal(t, http.StatusOK, bia.do(http.MethodPost, "/posts/"+post.ID+"/like", nil).Code)
	assert.Equal(t, http.StatusOK, bia.do(http.MethodPost, "/users/ana/follow", nil).Code)

	w = bia.do(http.MethodGet, "/feed?scope=following", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page social.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Posts, 1)
	assert.Equal(t, 1, page.Posts[0].LikesCount)
	assert.Equal(t, []string{"bia"}, []string(page.Posts[0].Likes))

	assert.Equal(t, http.StatusForbidden, bia.do(http.MethodDelete, "/posts/"+post.ID, nil).Code)
	assert.Equal(t, http.StatusOK, ana.do(http.MethodDelete, "/posts/"+post.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, bia.do(http.MethodGet, "/posts/"+post.ID, nil).Code)

	w = ana.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, 0, me.PostsCount)
	assert.Equal(t, []string{"bia"}, []string(me.Followers))
}

func TestSetupRouter_CORS(t *testing.T) {
	env := testutils.NewTestEnv(t)
	r := SetupRouter(Deps{Service: env.Service, Hub: env.Hub, JWTSecret: testutils.TestJWTSecret, CORSOrigins: []string{"https://app.example.com"}})

	req, _ := http.NewRequest(http.MethodOptions, "/feed", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContainsWildcard(t *testing.T) {
	assert.True(t, containsWildcard([]string{"https://a", "*"}))
	assert.False(t, containsWildcard([]string{"https://a"}))
}
