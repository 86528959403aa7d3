package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/testutils"
	"gorm.io/gorm"
)

var postColumns = []string{"id", "user_id", "user_name", "user_email", "description", "location",
	"image_url", "image_data", "likes", "likes_count", "version", "created_at", "updated_at"}

func TestPostgres_GetPost(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1 ORDER BY "posts"\."id" LIMIT`).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("p1", "u1", "Ana", "ana@example.com", "Leg day", "", "https://img/1", "", "{u2,u3}", 2, 4, createdAt, createdAt))

	post, err := s.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1", post.UserID)
	assert.Equal(t, pq.StringArray{"u2", "u3"}, post.Likes)
	assert.Equal(t, 2, post.LikesCount)
	assert.Equal(t, int64(4), post.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetPostNotFound(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := s.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgres_ListPostsWithCursor(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE user_id IN \(\$1,\$2\) AND .*created_at < \$3 OR .*created_at = \$4 AND id > \$5.* ORDER BY created_at DESC,id ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("p2", "u1", "Ana", "", "Cardio", "", "https://img/2", "", "{}", 0, 1, at.Add(-time.Hour), at.Add(-time.Hour)))

	posts, err := s.ListPosts(context.Background(), store.PostQuery{
		AuthorIDs: []string{"u1", "u2"},
		After:     &store.Cursor{CreatedAt: at, ID: "p1"},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p2", posts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CommitAppliesBatchInTransaction(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	now := time.Now().UTC()
	post := &models.Post{ID: "p1", UserID: "u1", Description: "Leg day", ImageURL: "https://img/1", CreatedAt: now, UpdatedAt: now}
	owner := &models.User{ID: "u1", Name: "Ana", PostsCount: 1, CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "posts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET .+ WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Commit(context.Background(), []store.Write{
		store.ReplaceUser(owner, 3),
		store.InsertPost(post),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), owner.Version)
	assert.Equal(t, int64(1), post.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CommitStaleVersionRollsBack(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	post := &models.Post{ID: "p1", UserID: "u1", Likes: pq.StringArray{"u2"}}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET .+ WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.Commit(context.Background(), []store.Write{store.ReplacePost(post, 2)})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, post.LikesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteGuardedByVersion(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "posts" WHERE id = \$1 AND version = \$2`).
		WithArgs("p1", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Commit(context.Background(), []store.Write{store.RemovePost("p1", 5)}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SerializationFailureIsConflict(t *testing.T) {
	gormDB, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	s := store.NewPostgres(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "posts"`).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err := s.Commit(context.Background(), []store.Write{store.RemovePost("p1", 1)})
	assert.True(t, errors.Is(err, store.ErrConflict))
}
