package social

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
)

const (
	MaxLocationLength = 200
	// MaxInlineImageSize borne une image encodée en ligne (1 Mio, taille encodée)
	MaxInlineImageSize  = 1 << 20
	mediaCleanupTimeout = 10 * time.Second
)

func validatePost(in *models.PostCreate) error {
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.ImageData = strings.TrimSpace(in.ImageData)

	if in.Description == "" {
		return validationf("description is required")
	}
	if n := utf8.RuneCountInString(in.Description); n > models.MaxDescriptionLength {
		return validationf("description must be at most %d characters (got %d)", models.MaxDescriptionLength, n)
	}
	if utf8.RuneCountInString(in.Location) > MaxLocationLength {
		return validationf("location must be at most %d characters", MaxLocationLength)
	}

	switch {
	case in.ImageURL == "" && in.ImageData == "":
		return validationf("image is required")
	case in.ImageURL != "" && in.ImageData != "":
		return validationf("provide either imageUrl or imageData, not both")
	case in.ImageURL != "":
		return validateImageURL(in.ImageURL)
	default:
		return validateImageData(in.ImageData)
	}
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validationf("imageUrl must be an absolute http(s) URL")
	}
	return nil
}

// validateImageData accepte du base64 brut ou une data URI "data:image/...;base64,"
func validateImageData(data string) error {
	if len(data) > MaxInlineImageSize {
		return validationf("imageData must be at most %d bytes", MaxInlineImageSize)
	}
	payload := data
	if strings.HasPrefix(data, "data:") {
		header, rest, ok := strings.Cut(data, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return validationf("imageData must be a base64 image data URI")
		}
		payload = rest
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return validationf("imageData is not valid base64")
	}
	return nil
}

// CreatePost insère le post et incrémente postsCount du propriétaire dans le même lot
func (s *Service) CreatePost(ctx context.Context, ownerID string, in models.PostCreate) (*models.Post, error) {
	if ownerID == "" {
		return nil, validationf("owner id is required")
	}
	if err := validatePost(&in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	postID := s.newID()
	var created *models.Post
	var owner *models.User

	err := s.atomically(ctx, "create_post", func(ctx context.Context) ([]store.Write, error) {
		current, err := s.getUser(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		post := &models.Post{
			ID:          postID,
			UserID:      ownerID,
			UserName:    current.Name,
			UserEmail:   current.Email,
			Description: in.Description,
			Location:    in.Location,
			ImageURL:    in.ImageURL,
			ImageData:   in.ImageData,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		next := current.Clone()
		next.PostsCount++
		next.UpdatedAt = s.clock.Now()

		created, owner = post, next
		return []store.Write{
			store.InsertPost(post),
			store.ReplaceUser(next, current.Version),
		}, nil
	})
	if err != nil {
		utils.LogErrorWithUser(ownerID, err, "Error creating post")
		return nil, err
	}

	utils.LogSuccessWithUser(ownerID, "Post created: "+created.ID)
	s.publish(
		realtime.NewPostEvent(realtime.PostCreated, created),
		realtime.NewUserEvent(owner),
	)
	return created, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.getPost(ctx, postID)
}

// DeletePost supprime le post et décrémente postsCount (plancher 0) atomiquement.
// Le nettoyage de l'image est demandé ensuite et son échec n'annule rien.
func (s *Service) DeletePost(ctx context.Context, postID, requesterID string) error {
	var deleted *models.Post
	var owner *models.User

	err := s.atomically(ctx, "delete_post", func(ctx context.Context) ([]store.Write, error) {
		post, err := s.getPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.UserID != requesterID {
			return nil, permissionf("only the owner can delete this post")
		}

		writes := []store.Write{store.RemovePost(post.ID, post.Version)}
		deleted, owner = post, nil

		current, err := s.getUser(ctx, post.UserID)
		switch {
		case err == nil:
			next := current.Clone()
			if next.PostsCount > 0 {
				next.PostsCount--
			}
			next.UpdatedAt = s.clock.Now()
			owner = next
			writes = append(writes, store.ReplaceUser(next, current.Version))
		case KindOf(err) != KindNotFound:
			return nil, err
		}
		return writes, nil
	})
	if err != nil {
		utils.LogErrorWithUser(requesterID, err, "Error deleting post "+postID)
		return err
	}

	utils.LogSuccessWithUser(requesterID, "Post deleted: "+postID)
	s.publish(realtime.NewPostDeletedEvent(deleted, s.clock.Now()))
	if owner != nil {
		s.publish(realtime.NewUserEvent(owner))
	}
	s.cleanupImage(ctx, deleted.ImageURL)
	return nil
}

// cleanupImage est best-effort: l'erreur est journalisée, jamais remontée
func (s *Service) cleanupImage(ctx context.Context, ref string) {
	if s.media == nil || ref == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mediaCleanupTimeout)
	defer cancel()
	if err := s.media.Delete(ctx, ref); err != nil {
		utils.LogError(err, "Media cleanup failed for "+ref)
	}
}
