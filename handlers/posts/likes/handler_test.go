package likes

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
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

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func setup(t *testing.T) (*testutils.Env, *gin.Engine, *models.Post) {
	env := testutils.NewTestEnv(t)
	ctx := context.Background()
	_, _, err := env.Service.EnsureProfile(ctx, social.Identity{UserID: "ana", Name: "Ana"}, models.UserCreate{})
	require.NoError(t, err)
	post, err := env.Service.CreatePost(ctx, "ana", models.PostCreate{Description: "Leg day", ImageURL: "https://cdn.example.com/leg.jpg"})
	require.NoError(t, err)

	r := testutils.SetupTestRouter()
	h := New(env.Service)
	r.POST("/posts/:id/like", func(c *gin.Context) {
		// Simuler l'authentification
		c.Set("user_id", c.GetHeader("X-Test-User"))
		h.ToggleLike(c)
	})
	return env, r, post
}

func like(r *gin.Engine, postID, userID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/posts/"+postID+"/like", nil)
	req.Header.Set("X-Test-User", userID)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestToggleLike_AddThenRemove(t *testing.T) {
	_, r, post := setup(t)

	resp := like(r, post.ID, "bia")
	assert.Equal(t, http.StatusOK, resp.Code)
	var added social.LikeResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &added))
	assert.True(t, added.Liked)
	assert.Equal(t, 1, added.Post.LikesCount)
	assert.Equal(t, []string{"bia"}, []string(added.Post.Likes))

	resp = like(r, post.ID, "bia")
	assert.Equal(t, http.StatusOK, resp.Code)
	var removed social.LikeResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &removed))
	assert.False(t, removed.Liked)
	assert.Equal(t, 0, removed.Post.LikesCount)
	assert.Empty(t, removed.Post.Likes)
}

func TestToggleLike_PostNotFound(t *testing.T) {
	_, r, _ := setup(t)

	resp := like(r, "unknown", "bia")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var respBody map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &respBody))
	assert.Equal(t, "not_found", respBody["code"])
}

func TestToggleLike_ConcurrentUsers(t *testing.T) {
	env, r, post := setup(t)
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			like(r, post.ID, u)
		}(u)
	}
	wg.Wait()

	stored, err := env.Service.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, []string(stored.Likes))
	assert.Equal(t, len(users), stored.LikesCount)
}
