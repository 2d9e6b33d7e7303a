package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"civil-quiz/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures the S3-compatible bucket holding list.json and the
// question-set objects.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
}

// Catalog reads the manifest and question sets from object storage.
type Catalog struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewCatalog(opts Options) (*Catalog, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Catalog{client: client, bucket: opts.Bucket, prefix: strings.Trim(opts.Prefix, "/")}, nil
}

func (c *Catalog) Manifest(ctx context.Context) ([]domain.ManifestEntry, error) {
	var entries []domain.ManifestEntry
	if err := c.getJSON(ctx, "list.json", &entries); err != nil {
		return nil, &domain.CatalogError{Err: err}
	}
	return entries, nil
}

func (c *Catalog) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	var set []domain.Question
	if err := c.getJSON(ctx, file, &set); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.ErrQuizNotFound
		}
		return nil, &domain.NetworkError{Op: "load " + file, Err: err}
	}
	return set, nil
}

// ObjectKey maps a catalog reference to its key inside the bucket. Keys
// never leave the prefix.
func (c *Catalog) ObjectKey(ref string) string {
	ref = strings.TrimPrefix(path.Clean("/"+ref), "/")
	if c.prefix == "" {
		return ref
	}
	return path.Join(c.prefix, ref)
}

func (c *Catalog) getJSON(ctx context.Context, ref string, out any) error {
	obj, err := c.client.GetObject(ctx, c.bucket, c.ObjectKey(ref), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()
	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	if err := json.NewDecoder(obj).Decode(out); err != nil {
		return err
	}
	return nil
}
