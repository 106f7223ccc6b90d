package adminform

import (
	"errors"
	"strings"

	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
	"github.com/teamsite/roster-api/internal/ports/out/rosterapi"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrImageTooLarge    = errors.New("image size should be less than 5MB")
	ErrNotAnImage       = errors.New("please select a valid image file")
	ErrNotEditing       = errors.New("not editing a member")
)

// ValidationError lists draft fields that failed local checks.
type ValidationError struct {
	Fields domain.FieldErrors
}

func (e *ValidationError) Error() string {
	return "invalid draft: " + e.Fields.Error()
}

type Stage string

const (
	StageUpload Stage = "upload"
	StageWrite  Stage = "write"
)

// SubmitError reports where a submission stopped. ImageUploaded is set when the
// hosted image exists but no member references it yet.
type SubmitError struct {
	Stage         Stage
	ImageUploaded bool
	Err           error
}

func (e *SubmitError) Error() string {
	msg := "submit failed during " + string(e.Stage)
	if e.ImageUploaded {
		msg += " (image uploaded but not linked)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmitError) Unwrap() error { return e.Err }

func uploadFailureText(err error) string {
	var he *imagehost.Error
	if !errors.As(err, &he) {
		return "Failed to upload image: " + err.Error()
	}
	switch he.Kind {
	case imagehost.KindMisconfigured:
		return "Image upload configuration missing."
	case imagehost.KindUnauthorized:
		return "Image upload failed: invalid upload preset or unauthorized."
	case imagehost.KindRejected:
		if he.Message != "" {
			return "Upload failed: " + he.Message
		}
		return "Image upload failed: invalid file or configuration."
	case imagehost.KindTimeout:
		return "Image upload timed out. Please try with a smaller image."
	default:
		return "Failed to upload image: " + he.Error()
	}
}

func writeFailureText(verb string, err error, imageUploaded bool) string {
	reason := err.Error()
	var ae *rosterapi.Error
	if errors.As(err, &ae) {
		reason = ae.Message
		if fields := detailFields(ae.Details); fields != "" {
			reason += " (" + fields + ")"
		}
	}
	text := "Failed to " + verb + " member: " + reason
	if imageUploaded {
		text += ". The image was uploaded but is not linked yet; submit again to retry."
	}
	return text
}

func detailFields(d map[string]any) string {
	if len(d) == 0 {
		return ""
	}
	fe := domain.FieldErrors{}
	for k, v := range d {
		s, _ := v.(string)
		fe[k] = s
	}
	parts := make([]string, 0, len(fe))
	for _, k := range fe.Fields() {
		parts = append(parts, k+" "+fe[k])
	}
	return strings.Join(parts, ", ")
}
