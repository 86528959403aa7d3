package social

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
)

const (
	MaxNameLength  = 100
	MaxBioLength   = 300
	MaxPhoneLength = 30
	defaultName    = "Usuário"
)

// Identity est ce que le fournisseur d'authentification garantit pour la requête
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// EnsureProfile crée le document "users" de l'identité s'il n'existe pas encore.
// Le booléen indique si le profil vient d'être créé.
func (s *Service) EnsureProfile(ctx context.Context, id Identity, in models.UserCreate) (*models.User, bool, error) {
	if id.UserID == "" {
		return nil, false, validationf("user id is required")
	}

	existing, err := s.getUser(ctx, id.UserID)
	if err == nil {
		return existing, false, nil
	}
	if KindOf(err) != KindNotFound {
		return nil, false, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(id.Name)
	}
	if name == "" {
		name = defaultName
	}
	phone := strings.TrimSpace(in.Phone)
	if err := validateProfile(name, phone, ""); err != nil {
		return nil, false, err
	}

	now := s.clock.Now()
	user := &models.User{
		ID:        id.UserID,
		Name:      name,
		Email:     id.Email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.commit(ctx, []store.Write{store.InsertUser(user)})
	if err != nil {
		if KindOf(storeError(err, "user")) == KindConflict {
			// créé en parallèle par une autre requête
			existing, err := s.getUser(ctx, id.UserID)
			return existing, false, err
		}
		return nil, false, storeError(err, "user")
	}

	utils.LogSuccessWithUser(user.ID, "Profile created")
	s.publish(realtime.NewUserEvent(user))
	return user, true, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, userID)
}

func validateProfile(name, phone, bio string) error {
	if name == "" {
		return validationf("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return validationf("name must be at most %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return validationf("phone must be at most %d characters", MaxPhoneLength)
	}
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return validationf("bio must be at most %d characters", MaxBioLength)
	}
	return nil
}

// UpdateProfile applique les champs présents de upd. Remplacer la photo de profil
// demande le nettoyage de l'ancienne.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd models.UserUpdate) (*models.User, error) {
	if upd.ProfileImage != nil {
		img := strings.TrimSpace(*upd.ProfileImage)
		if img != "" {
			if err := validateImageURL(img); err != nil {
				return nil, validationf("profileImage must be an absolute http(s) URL")
			}
		}
		upd.ProfileImage = &img
	}

	var updated *models.User
	var oldImage string
	err := s.atomically(ctx, "update_profile", func(ctx context.Context) ([]store.Write, error) {
		current, err := s.getUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if upd.Name != nil {
			next.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Phone != nil {
			next.Phone = strings.TrimSpace(*upd.Phone)
		}
		if upd.Bio != nil {
			next.Bio = strings.TrimSpace(*upd.Bio)
		}
		if upd.ProfileImage != nil {
			next.ProfileImage = *upd.ProfileImage
		}
		if err := validateProfile(next.Name, next.Phone, next.Bio); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.clock.Now()

		updated, oldImage = next, ""
		if current.ProfileImage != "" && current.ProfileImage != next.ProfileImage {
			oldImage = current.ProfileImage
		}
		return []store.Write{store.ReplaceUser(next, current.Version)}, nil
	})
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating profile")
		return nil, err
	}

	utils.LogSuccessWithUser(userID, "Profile updated")
	s.publish(realtime.NewUserEvent(updated))
	s.cleanupImage(ctx, oldImage)
	return updated, nil
}
