// Package cloudinary uploads member portraits with Cloudinary's unsigned upload API.
package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	cldsdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
)

const (
	DefaultBaseURL      = "https://api.cloudinary.com"
	DefaultUploadPreset = "team_members"
	DefaultTimeout      = 60 * time.Second
)

type Config struct {
	CloudName    string
	UploadPreset string
	Timeout      time.Duration

	// BaseURL overrides the API origin; tests point it at an httptest server.
	BaseURL    string
	HTTPClient *http.Client
}

type Uploader struct {
	api     *uploader.API
	preset  string
	timeout time.Duration
	initErr error
}

var _ imagehost.Uploader = (*Uploader)(nil)

// New never fails; a missing cloud name surfaces as KindMisconfigured on Upload.
func New(cfg Config) *Uploader {
	u := &Uploader{
		preset:  strings.TrimSpace(cfg.UploadPreset),
		timeout: cfg.Timeout,
	}
	if u.preset == "" {
		u.preset = DefaultUploadPreset
	}
	if u.timeout <= 0 {
		u.timeout = DefaultTimeout
	}

	cloudName := strings.TrimSpace(cfg.CloudName)
	if cloudName == "" {
		u.initErr = errors.New("cloudinary cloud name is not configured")
		return u
	}
	// Unsigned uploads need neither an API key nor a secret.
	cld, err := cldsdk.NewFromParams(cloudName, "", "")
	if err != nil {
		u.initErr = err
		return u
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cld.Upload.Config.API.UploadPrefix = baseURL

	next := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		next = cfg.HTTPClient.Transport
	}
	cld.Upload.Client = http.Client{Transport: statusTransport{next: next}}
	u.api = &cld.Upload
	return u
}

func (u *Uploader) Upload(ctx context.Context, img imagehost.Image) (string, error) {
	if u.api == nil {
		return "", &imagehost.Error{Kind: imagehost.KindMisconfigured, Message: "cloudinary is not configured", Err: u.initErr}
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	status := 0
	ctx = context.WithValue(ctx, statusKey{}, &status)

	res, err := u.api.UnsignedUpload(ctx, bytes.NewReader(img.Data), u.preset, uploader.UploadParams{})
	if err != nil {
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &imagehost.Error{Kind: imagehost.KindTimeout, Message: "upload timed out, try a smaller image", Err: err}
		}
		if status == 0 {
			return "", &imagehost.Error{Kind: imagehost.KindOther, Err: err}
		}
		// The response arrived but its body was not an upload result.
		return "", statusError(status, "", err)
	}

	if status < 200 || status > 299 || res.Error.Message != "" {
		return "", statusError(status, res.Error.Message, nil)
	}
	if res.SecureURL == "" {
		return "", &imagehost.Error{Kind: imagehost.KindOther, Message: "upload response has no secure_url"}
	}
	return res.SecureURL, nil
}

// statusError classifies a failed upload by HTTP status first; the upstream
// message only refines the text.
func statusError(status int, upstreamMsg string, err error) *imagehost.Error {
	e := &imagehost.Error{Message: upstreamMsg, Err: err}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = imagehost.KindUnauthorized
		if e.Message == "" {
			e.Message = "invalid upload preset or unauthorized"
		}
	case status == http.StatusBadRequest:
		e.Kind = imagehost.KindRejected
		if e.Message == "" {
			e.Message = "invalid file or configuration"
		}
	default:
		e.Kind = imagehost.KindOther
		if e.Message == "" {
			e.Message = fmt.Sprintf("unexpected status %d", status)
		}
	}
	return e
}

type statusKey struct{}

// statusTransport records the response status into the *int carried by the
// request context. The SDK returns only the body.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		if p, ok := req.Context().Value(statusKey{}).(*int); ok {
			*p = resp.StatusCode
		}
	}
	return resp, err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
