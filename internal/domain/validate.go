package domain

import (
	"net/url"
	"sort"
	"strings"
)

// Field names as they appear on the wire; FieldErrors is keyed by them.
const (
	FieldName       = "name"
	FieldBatch      = "batch"
	FieldFaculty    = "faculty"
	FieldMemberType = "memberType"
	FieldECTitle    = "ecTitle"
	FieldImageURL   = "imageUrl"
)

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "invalid member"
	}
	keys := fe.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid member: " + strings.Join(parts, "; ")
}

// Fields returns the offending field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Details converts fe into a generic map suitable for an error response.
func (fe FieldErrors) Details() map[string]any {
	out := make(map[string]any, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// Classify normalizes f and turns it into a validated Variant.
//
// It is the single place that enforces the member invariants: required text fields,
// a resolved image URL, a known member type, and a title exactly when the member is
// on the executive committee. A title supplied for a team member is dropped, not rejected.
// Every violation is reported, not just the first.
func Classify(f MemberFields) (Variant, error) {
	name := NormalizeText(f.Name)
	batch := NormalizeText(f.Batch)
	faculty := NormalizeText(f.Faculty)
	title := NormalizeText(f.ECTitle)
	imageURL := strings.TrimSpace(f.ImageURL)

	errs := FieldErrors{}
	if name == "" {
		errs[FieldName] = "is required"
	}
	if batch == "" {
		errs[FieldBatch] = "is required"
	}
	if faculty == "" {
		errs[FieldFaculty] = "is required"
	}
	if imageURL == "" {
		errs[FieldImageURL] = "is required"
	} else if !isAbsoluteHTTPURL(imageURL) {
		errs[FieldImageURL] = "must be an absolute http(s) URL"
	}

	switch f.Type {
	case "":
		errs[FieldMemberType] = "is required"
	case MemberTypeEC:
		if title == "" {
			errs[FieldECTitle] = "is required for ec members"
		}
	case MemberTypeTeam:
	default:
		errs[FieldMemberType] = `must be either "team" or "ec"`
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if f.Type == MemberTypeEC {
		return ECMember{Name: name, Batch: batch, Faculty: faculty, ImageURL: imageURL, Title: title}, nil
	}
	return TeamMember{Name: name, Batch: batch, Faculty: faculty, ImageURL: imageURL}, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
