package social

import (
	"context"

	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
)

type FollowResult struct {
	Following bool          `json:"following"`
	Follower  *models.User  `json:"-"`
	Target    *models.User  `json:"-"`
	Counts    *FollowCounts `json:"counts"`
}

type FollowCounts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// ToggleFollow ajoute ou retire l'arête followerID -> targetID. Les deux côtés
// (following du suiveur, followers de la cible) sont écrits dans le même lot.
func (s *Service) ToggleFollow(ctx context.Context, followerID, targetID string) (*FollowResult, error) {
	if followerID == "" || targetID == "" {
		return nil, validationf("both user ids are required")
	}
	if followerID == targetID {
		return nil, validationf("you cannot follow yourself")
	}

	var result FollowResult
	err := s.atomically(ctx, "toggle_follow", func(ctx context.Context) ([]store.Write, error) {
		follower, err := s.getUser(ctx, followerID)
		if err != nil {
			return nil, err
		}
		target, err := s.getUser(ctx, targetID)
		if err != nil {
			return nil, err
		}

		nextFollower, nextTarget := follower.Clone(), target.Clone()
		if follower.IsFollowing(targetID) {
			// les deux retraits sont faits même si un seul côté était présent
			nextFollower.Following, _ = models.RemoveFromSet(nextFollower.Following, targetID)
			nextTarget.Followers, _ = models.RemoveFromSet(nextTarget.Followers, followerID)
			result.Following = false
		} else {
			nextFollower.Following, _ = models.AddToSet(nextFollower.Following, targetID)
			nextTarget.Followers, _ = models.AddToSet(nextTarget.Followers, followerID)
			result.Following = true
		}
		now := s.clock.Now()
		nextFollower.UpdatedAt, nextTarget.UpdatedAt = now, now

		result.Follower, result.Target = nextFollower, nextTarget
		return []store.Write{
			store.ReplaceUser(nextFollower, follower.Version),
			store.ReplaceUser(nextTarget, target.Version),
		}, nil
	})
	if err != nil {
		utils.LogErrorWithUser(followerID, err, "Error toggling follow on "+targetID)
		return nil, err
	}

	result.Counts = &FollowCounts{
		Followers: len(result.Target.Followers),
		Following: len(result.Follower.Following),
	}
	s.publish(realtime.NewUserEvent(result.Follower), realtime.NewUserEvent(result.Target))
	return &result, nil
}

func (s *Service) ListFollowers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Followers)
}

func (s *Service) ListFollowing(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Following)
}

func (s *Service) summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, storeError(err, "users")
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}
