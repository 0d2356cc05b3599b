package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lysyi3m/news-comb/app/database"
)

// ObjectPutter is the part of the S3 client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket       string
	Region       string
	Prefix       string // empty or ending in "/"
	Endpoint     string // S3-compatible endpoint, AWS when empty
	UsePathStyle bool
}

// S3Archiver writes every stored article as a JSON object under <prefix>articles/<id>.json.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

type articleRecord struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Time    string `json:"time"`
	Content string `json:"content"`
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

// NewS3Archiver builds a client from the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg Config) (*S3Archiver, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	slog.Info("Article archive enabled", "bucket", cfg.Bucket, "prefix", cfg.Prefix)

	return NewArchiver(client, cfg.Bucket, cfg.Prefix), nil
}

func NewArchiver(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3Archiver) Archive(ctx context.Context, article database.Article) error {
	body, err := json.Marshal(articleRecord{
		ID:      article.ID,
		URL:     article.URL,
		Title:   article.Title,
		Time:    article.Time,
		Content: article.Content,
		Summary: article.Summary,
		Reason:  article.Reason,
	})
	if err != nil {
		return fmt.Errorf("failed to encode article: %w", err)
	}

	key := a.Key(article.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	slog.Debug("Article archived", "id", article.ID, "key", key)

	return nil
}

func (a *S3Archiver) Key(id int64) string {
	return fmt.Sprintf("%sarticles/%d.json", a.prefix, id)
}
