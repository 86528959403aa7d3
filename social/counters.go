package social

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/whisky55/rede-social/models"
	"github.com/whisky55/rede-social/realtime"
	"github.com/whisky55/rede-social/store"
	"github.com/whisky55/rede-social/utils"
)

// txFunc lit les documents nécessaires et renvoie les écritures à valider.
// Elle est rejouée en entier après un conflit: elle ne doit pas avoir d'effet de bord.
type txFunc func(ctx context.Context) ([]store.Write, error)

// atomically exécute une lecture-modification-écriture optimiste. Les compteurs sont
// toujours recalculés à partir des ensembles lus, jamais incrémentés à l'aveugle: en cas
// de conflit la fonction est rejouée sur un état frais.
func (s *Service) atomically(ctx context.Context, op string, fn txFunc) error {
	for attempt := 1; ; attempt++ {
		writes, err := fn(ctx)
		if err != nil {
			return err
		}
		if len(writes) == 0 {
			return nil
		}

		err = s.commit(ctx, writes)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return storeError(err, op)
		}
		if attempt >= s.opts.MaxAttempts {
			utils.Logger.WithFields(logrus.Fields{
				"source":   "social",
				"op":       op,
				"attempts": attempt,
			}).Warn("Giving up after repeated write conflicts")
			return unavailable(op+" is contended, retry later", err)
		}

		utils.Logger.WithFields(logrus.Fields{
			"source":  "social",
			"op":      op,
			"attempt": attempt,
		}).Debug("Write conflict, retrying")

		if err := sleep(ctx, s.backoff(attempt)); err != nil {
			return unavailable("request canceled", err)
		}
	}
}

func (s *Service) commit(ctx context.Context, writes []store.Write) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.Commit(ctx, writes)
}

const maxBackoff = time.Second

// backoff exponentiel avec jitter: base * 2^(attempt-1) * [0.5, 1.5), plafonné
func (s *Service) backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt <= 30 {
		if exp := s.opts.Backoff << uint(attempt-1); exp > 0 && exp < maxBackoff {
			d = exp
		}
	}
	jitter := time.Duration(rand.Int63n(int64(d) + 1))
	return d/2 + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type LikeResult struct {
	Liked bool         `json:"liked"`
	Post  *models.Post `json:"post"`
}

// ToggleLike ajoute userID aux likes du post s'il en est absent, le retire sinon.
// likesCount est réécrit à len(likes) dans la même écriture conditionnelle.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	if userID == "" {
		return nil, validationf("user id is required")
	}
	if postID == "" {
		return nil, validationf("post id is required")
	}

	var result LikeResult
	err := s.atomically(ctx, "toggle_like", func(ctx context.Context) ([]store.Write, error) {
		post, err := s.getPost(ctx, postID)
		if err != nil {
			return nil, err
		}

		next := post.Clone()
		if post.LikedBy(userID) {
			next.Likes, _ = models.RemoveFromSet(next.Likes, userID)
			result.Liked = false
		} else {
			next.Likes, _ = models.AddToSet(next.Likes, userID)
			result.Liked = true
		}
		next.UpdatedAt = s.clock.Now()
		result.Post = next
		return []store.Write{store.ReplacePost(next, post.Version)}, nil
	})
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error toggling like on post "+postID)
		return nil, err
	}

	s.publish(realtime.NewPostEvent(realtime.PostUpdated, result.Post))
	return &result, nil
}
