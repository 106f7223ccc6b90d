package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/teamsite/roster-api/internal/app/members"
	"github.com/teamsite/roster-api/internal/domain"
)

// Member is the wire form of a roster member.
type Member struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Batch      string    `json:"batch"`
	Faculty    string    `json:"faculty"`
	MemberType string    `json:"memberType"`
	ECTitle    string    `json:"ecTitle,omitempty"`
	ImageURL   string    `json:"imageUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type MemberResponse struct {
	Member Member `json:"member"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type DeleteMemberResponse struct {
	MemberID string `json:"memberId"`
	Deleted  bool   `json:"deleted"`
}

type CreateMemberRequest struct {
	Name       string `json:"name"`
	Batch      string `json:"batch"`
	Faculty    string `json:"faculty"`
	MemberType string `json:"memberType"`
	ECTitle    string `json:"ecTitle,omitempty"`
	ImageURL   string `json:"imageUrl"`
}

// UpdateMemberRequest distinguishes absent fields from explicit nulls.
// Identifier fields in the body are not decoded; the path wins.
type UpdateMemberRequest struct {
	Name       nullable.Nullable[string] `json:"name,omitempty"`
	Batch      nullable.Nullable[string] `json:"batch,omitempty"`
	Faculty    nullable.Nullable[string] `json:"faculty,omitempty"`
	MemberType nullable.Nullable[string] `json:"memberType,omitempty"`
	ECTitle    nullable.Nullable[string] `json:"ecTitle,omitempty"`
	ImageURL   nullable.Nullable[string] `json:"imageUrl,omitempty"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func memberFromDomain(m domain.Member) Member {
	return Member{
		ID:         string(m.ID),
		Name:       m.Name,
		Batch:      m.Batch,
		Faculty:    m.Faculty,
		MemberType: string(m.Type),
		ECTitle:    m.ECTitle,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func (b CreateMemberRequest) toInput() members.CreateMemberInput {
	return members.CreateMemberInput{
		Name:       b.Name,
		Batch:      b.Batch,
		Faculty:    b.Faculty,
		MemberType: b.MemberType,
		ECTitle:    b.ECTitle,
		ImageURL:   b.ImageURL,
	}
}

func (b UpdateMemberRequest) toInput() members.UpdateMemberInput {
	return members.UpdateMemberInput{
		Name:       optionalStringFromNullable(b.Name),
		Batch:      optionalStringFromNullable(b.Batch),
		Faculty:    optionalStringFromNullable(b.Faculty),
		MemberType: optionalStringFromNullable(b.MemberType),
		ECTitle:    optionalStringFromNullable(b.ECTitle),
		ImageURL:   optionalStringFromNullable(b.ImageURL),
	}
}

func optionalStringFromNullable(n nullable.Nullable[string]) members.Optional[string] {
	if !n.IsSpecified() {
		return members.Unspecified[string]()
	}
	if n.IsNull() {
		return members.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return members.Unspecified[string]()
	}
	return members.Some(v)
}
