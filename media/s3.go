package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/whisky55/rede-social/utils"
)

// S3Config accepte aussi un stockage compatible (Cloudflare R2, MinIO) via Endpoint
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	PublicURLPrefix string
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	client objectDeleter
	bucket string
	prefix string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing required S3 environment variables")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	prefix := cfg.PublicURLPrefix
	if prefix == "" && endpoint != "" {
		prefix = endpoint + "/" + cfg.Bucket
	}
	if prefix == "" {
		prefix = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	utils.LogSuccess(fmt.Sprintf("S3 media storage initialized, bucket: %s", cfg.Bucket))
	return newS3WithClient(client, cfg.Bucket, prefix), nil
}

func newS3WithClient(client objectDeleter, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.TrimSuffix(prefix, "/") + "/"}
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFromRef(ref)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// keyFromRef accepte une URL publique du bucket ou une référence s3://bucket/key
func (s *S3) keyFromRef(ref string) (string, error) {
	if strings.HasPrefix(ref, "s3://") {
		u, err := url.Parse(ref)
		if err != nil || u.Host != s.bucket {
			return "", ErrForeignReference
		}
		if key := strings.TrimPrefix(u.Path, "/"); key != "" {
			return key, nil
		}
		return "", ErrForeignReference
	}
	if !strings.HasPrefix(ref, s.prefix) {
		return "", ErrForeignReference
	}
	key := strings.TrimPrefix(ref, s.prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", ErrForeignReference
	}
	return key, nil
}
