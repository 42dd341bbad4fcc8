package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// objects are stored under Prefix/${name}
	Prefix string
	// use http instead of https, for local minio servers
	Insecure     bool
	RequestTrace io.Writer
}

func (c *S3Config) validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return errors.New("must provide Access, Secret, Bucket and Endpoint in config")
	}
	return nil
}

// S3 uploads backups to S3 compatible storage
type S3 struct {
	Client *minio.Client
	config S3Config
}

// NewS3 creates a client and checks that the bucket exists
func NewS3(ctx context.Context, config *S3Config) (*S3, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	c := *config
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &S3{
		Client: mc,
		config: c,
	}, nil
}

func objectName(prefix string, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimPrefix(name, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xml":
		return "application/xml"
	case ".gz", ".zstd", ".zst", ".br":
		return "application/octet-stream"
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

func (s *S3) Upload(ctx context.Context, localPath string, remoteName string) error {
	name := objectName(s.config.Prefix, remoteName)
	opts := minio.PutObjectOptions{
		ContentType: contentTypeFor(remoteName),
	}
	_, err := s.Client.FPutObject(ctx, s.config.Bucket, name, localPath, opts)
	return err
}

func (s *S3) Exists(ctx context.Context, remoteName string) bool {
	name := objectName(s.config.Prefix, remoteName)
	_, err := s.Client.StatObject(ctx, s.config.Bucket, name, minio.StatObjectOptions{})
	return err == nil
}

// URLFor returns url of an uploaded backup, for logging
func (s *S3) URLFor(remoteName string) string {
	u := s.Client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, s.config.Bucket, objectName(s.config.Prefix, remoteName))
}
