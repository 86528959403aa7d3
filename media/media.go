// Package media demande la suppression des images qui ne sont plus référencées.
// Le service ne gère ni l'upload ni le redimensionnement: il ne connaît que des références.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/whisky55/rede-social/config"
)

// ErrForeignReference signale une référence qui n'appartient pas au fournisseur configuré
var ErrForeignReference = errors.New("reference not managed by this provider")

type Cleaner interface {
	Delete(ctx context.Context, ref string) error
}

// Noop est utilisé quand aucun fournisseur n'est configuré
type Noop struct{}

func (Noop) Delete(ctx context.Context, ref string) error {
	return nil
}

// New construit le Cleaner correspondant à MEDIA_PROVIDER
func New(ctx context.Context, cfg *config.Config) (Cleaner, error) {
	switch cfg.MediaProvider {
	case config.CloudinaryProvider:
		return NewCloudinary(ctx, cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret)
	case config.S3Provider:
		return NewS3(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKey:       cfg.S3AccessKey,
			SecretKey:       cfg.S3SecretKey,
			PublicURLPrefix: cfg.S3PublicURLPrefix,
		})
	case config.NoMediaProvider, "":
		return Noop{}, nil
	}
	return nil, fmt.Errorf("unknown media provider %q", cfg.MediaProvider)
}
