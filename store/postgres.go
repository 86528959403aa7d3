package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/whisky55/rede-social/models"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Postgres stocke chaque document dans une ligne; les ensembles sont des colonnes text[]
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Post{})
}

func (s *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translatePgError(err)
	}
	return &user, nil
}

func (s *Postgres) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translatePgError(err)
	}

	// conserve l'ordre des ids demandés
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Postgres) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translatePgError(err)
	}
	return &post, nil
}

func (s *Postgres) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	query := s.db.WithContext(ctx).Model(&models.Post{})

	if len(q.AuthorIDs) > 0 {
		query = query.Where("user_id IN ?", q.AuthorIDs)
	}
	if q.After != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id > ?))",
			q.After.CreatedAt, q.After.CreatedAt, q.After.ID)
	}
	query = query.Order("created_at DESC").Order("id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	posts := []models.Post{}
	if err := query.Find(&posts).Error; err != nil {
		return nil, translatePgError(err)
	}
	return posts, nil
}

// Commit applique le lot dans une transaction; chaque mise à jour est gardée par
// "version = ?" et une ligne non touchée annule tout le lot.
func (s *Postgres) Commit(ctx context.Context, writes []Write) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range ordered(writes) {
			if err := applyPgWrite(tx, w); err != nil {
				return err
			}
		}
		return nil
	})
	return translatePgError(err)
}

func applyPgWrite(tx *gorm.DB, w Write) error {
	var res *gorm.DB
	switch w.Kind {
	case CreateUser:
		res = tx.Create(w.User)
	case CreatePost:
		res = tx.Create(w.Post)
	case UpdateUser:
		res = tx.Model(&models.User{}).
			Where("id = ? AND version = ?", w.User.ID, w.Expected).
			Select("*").Omit("id", "created_at").
			Updates(w.User)
	case UpdatePost:
		res = tx.Model(&models.Post{}).
			Where("id = ? AND version = ?", w.Post.ID, w.Expected).
			Select("*").Omit("id", "user_id", "created_at").
			Updates(w.Post)
	case DeletePost:
		res = tx.Where("id = ? AND version = ?", w.PostID, w.Expected).Delete(&models.Post{})
	default:
		return fmt.Errorf("unsupported write kind %d", w.Kind)
	}

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", w.Kind, w.docID(), ErrConflict)
	}
	return nil
}

func (s *Postgres) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w", pgErr.Message, ErrConflict)
		}
	}
	return err
}
