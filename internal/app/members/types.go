package members

import "github.com/teamsite/roster-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// CreateMemberInput is the caller-supplied content of a new member.
// MemberType is kept as a raw string so unknown values are reported as field errors.
type CreateMemberInput struct {
	Name       string
	Batch      string
	Faculty    string
	MemberType string
	ECTitle    string
	ImageURL   string
}

// UpdateMemberInput patches the editable fields of an existing member.
// Identifier and timestamps are not part of the input.
type UpdateMemberInput struct {
	Name       Optional[string]
	Batch      Optional[string]
	Faculty    Optional[string]
	MemberType Optional[string]
	ECTitle    Optional[string] // null clears
	ImageURL   Optional[string]
}

func (in CreateMemberInput) fields() domain.MemberFields {
	return domain.MemberFields{
		Name:     in.Name,
		Batch:    in.Batch,
		Faculty:  in.Faculty,
		Type:     domain.MemberType(in.MemberType),
		ECTitle:  in.ECTitle,
		ImageURL: in.ImageURL,
	}
}
