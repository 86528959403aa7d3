package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/whisky55/rede-social/utils"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

type Cloudinary struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

// NewCloudinary initialise la connexion à Cloudinary et la vérifie
func NewCloudinary(ctx context.Context, cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary environment variables are not set")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("error initializing cloudinary: %v", err)
	}

	// Vérifier la connexion à Cloudinary
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := cld.Admin.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("error checking cloudinary connection: %v", err)
	}

	utils.LogSuccess("Cloudinary initialized for cloud " + cloudName)
	return &Cloudinary{cld: cld, cloudName: cloudName}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, ref string) error {
	publicID, err := PublicIDFromURL(ref, c.cloudName)
	if err != nil {
		return err
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("error deleting %s from cloudinary: %w", publicID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary refused to delete %s: %s", publicID, res.Result)
	}
	return nil
}

// PublicIDFromURL extrait le public ID d'une URL de livraison Cloudinary,
// ex: https://res.cloudinary.com/<cloud>/image/upload/v123/post_pictures/abc.jpg -> post_pictures/abc
func PublicIDFromURL(ref, cloudName string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || !strings.HasSuffix(u.Host, "cloudinary.com") {
		return "", ErrForeignReference
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// <cloud>/<resource>/<type>/[transformations...]/[vNNN]/<public id...>
	if len(parts) < 4 || parts[0] != cloudName || parts[2] != "upload" {
		return "", ErrForeignReference
	}
	rest := parts[3:]
	for i, seg := range rest {
		if versionSegment.MatchString(seg) {
			rest = rest[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		return "", ErrForeignReference
	}

	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, path.Ext(id)), nil
}
