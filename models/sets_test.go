package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAddToSet(t *testing.T) {
	set := pq.StringArray{"a"}

	out, added := AddToSet(set, "b")
	assert.True(t, added)
	assert.Equal(t, pq.StringArray{"a", "b"}, out)
	assert.Equal(t, pq.StringArray{"a"}, set)

	out, added = AddToSet(out, "a")
	assert.False(t, added)
	assert.Len(t, out, 2)
}

func TestRemoveFromSet(t *testing.T) {
	set := pq.StringArray{"a", "b", "a"}

	out, removed := RemoveFromSet(set, "a")
	assert.True(t, removed)
	assert.Equal(t, pq.StringArray{"b"}, out)

	out, removed = RemoveFromSet(out, "z")
	assert.False(t, removed)
	assert.Equal(t, pq.StringArray{"b"}, out)
}

func TestCloneIsDeep(t *testing.T) {
	post := &Post{ID: "p1", Likes: pq.StringArray{"u1"}, LikesCount: 1}
	c := post.Clone()
	c.Likes[0] = "u2"
	assert.Equal(t, "u1", post.Likes[0])

	user := &User{ID: "u1"}
	cu := user.Clone()
	assert.NotNil(t, cu.Followers)
	assert.NotNil(t, cu.Following)
	assert.False(t, cu.IsFollowing("u2"))
}
