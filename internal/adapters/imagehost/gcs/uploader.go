// Package gcs hosts member portraits in a public Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
)

const (
	ObjectPrefix  = "members/"
	PublicBaseURL = "https://storage.googleapis.com"
)

type Config struct {
	Bucket          string
	CredentialsFile string
}

type Uploader struct {
	bucket string
	client *storage.Client

	newObject func(ctx context.Context, name, contentType string) io.WriteCloser
	newName   func() string
}

var _ imagehost.Uploader = (*Uploader)(nil)

// New opens a storage client for cfg.Bucket. Call Close when done.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, &imagehost.Error{Kind: imagehost.KindMisconfigured, Message: "gcs bucket is not configured"}
	}

	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, &imagehost.Error{Kind: imagehost.KindMisconfigured, Message: "creating storage client", Err: err}
	}

	u := &Uploader{bucket: bucket, client: client, newName: uuid.NewString}
	handle := client.Bucket(bucket)
	u.newObject = func(ctx context.Context, name, contentType string) io.WriteCloser {
		w := handle.Object(name).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "public, max-age=31536000"
		return w
	}
	return u, nil
}

func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}
	err := u.client.Close()
	u.client = nil
	return err
}

func (u *Uploader) Upload(ctx context.Context, img imagehost.Image) (string, error) {
	if u.bucket == "" || u.newObject == nil {
		return "", &imagehost.Error{Kind: imagehost.KindMisconfigured, Message: "gcs uploader is not initialised"}
	}

	name := objectName(u.newName(), img)
	w := u.newObject(ctx, name, img.ContentType)
	if _, err := w.Write(img.Data); err != nil {
		_ = w.Close()
		return "", classify(err)
	}
	if err := w.Close(); err != nil {
		return "", classify(err)
	}
	return PublicURL(u.bucket, name), nil
}

// objectName is members/<id><ext>, preferring the extension registered for
// the declared content type over the one in the filename.
func objectName(id string, img imagehost.Image) string {
	ext := ""
	if m := mimetype.Lookup(img.ContentType); m != nil {
		ext = m.Extension()
	}
	if ext == "" {
		ext = strings.ToLower(path.Ext(img.Filename))
	}
	return ObjectPrefix + id + ext
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/%s/%s", PublicBaseURL, bucket, (&url.URL{Path: object}).EscapedPath())
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &imagehost.Error{Kind: imagehost.KindTimeout, Err: err}
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch ge.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &imagehost.Error{Kind: imagehost.KindUnauthorized, Message: ge.Message, Err: err}
		case http.StatusBadRequest:
			return &imagehost.Error{Kind: imagehost.KindRejected, Message: ge.Message, Err: err}
		}
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return &imagehost.Error{Kind: imagehost.KindMisconfigured, Message: "bucket does not exist", Err: err}
	}
	return &imagehost.Error{Kind: imagehost.KindOther, Err: err}
}
