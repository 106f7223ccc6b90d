package imagehost

import (
	"context"
	"errors"
)

// Image is a portrait selected for upload.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Uploader hosts images and returns a durable public URL for each.
type Uploader interface {
	Upload(ctx context.Context, img Image) (secureURL string, err error)
}

// Kind classifies an upload failure so callers can tell the user what to do about it.
type Kind string

const (
	KindMisconfigured Kind = "misconfigured"
	KindUnauthorized  Kind = "unauthorized"
	KindRejected      Kind = "rejected"
	KindTimeout       Kind = "timeout"
	KindOther         Kind = "other"
)

// Error is returned by Uploader implementations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "image upload failed (" + string(e.Kind) + ")"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or KindOther when err is not an *Error.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindOther
}
