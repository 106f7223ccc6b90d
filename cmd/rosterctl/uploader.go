package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/teamsite/roster-api/internal/adapters/imagehost/cloudinary"
	"github.com/teamsite/roster-api/internal/adapters/imagehost/gcs"
	"github.com/teamsite/roster-api/internal/platform/config"
	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
)

func openUploader(ctx context.Context, cfg config.ClientConfig) (imagehost.Uploader, func(), error) {
	switch cfg.ImageHost {
	case config.ImageHostGCS:
		u, err := gcs.New(ctx, gcs.Config{Bucket: cfg.GCSBucket, CredentialsFile: cfg.GCSCredentialsFile})
		if err != nil {
			return nil, nil, err
		}
		return u, func() { _ = u.Close() }, nil
	case config.ImageHostCloudinary, "":
		u := cloudinary.New(cloudinary.Config{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
			Timeout:      cfg.CloudinaryTimeout,
		})
		return u, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown image host %q", cfg.ImageHost)
	}
}

// lazyUploader opens the configured image host on first use, so commands that
// never upload do not need image host credentials.
type lazyUploader struct {
	open func(ctx context.Context) (imagehost.Uploader, func(), error)

	mu    sync.Mutex
	inner imagehost.Uploader
	close func()
}

func (l *lazyUploader) Upload(ctx context.Context, img imagehost.Image) (string, error) {
	l.mu.Lock()
	if l.inner == nil {
		u, closeFn, err := l.open(ctx)
		if err != nil {
			l.mu.Unlock()
			return "", &imagehost.Error{Kind: imagehost.KindMisconfigured, Err: err}
		}
		l.inner, l.close = u, closeFn
	}
	u := l.inner
	l.mu.Unlock()
	return u.Upload(ctx, img)
}

func (l *lazyUploader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.close != nil {
		l.close()
		l.close = nil
	}
}
