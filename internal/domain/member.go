package domain

import "time"

// MemberType discriminates the two kinds of roster entry.
type MemberType string

const (
	MemberTypeTeam MemberType = "team"
	MemberTypeEC   MemberType = "ec"
)

// Valid reports whether t is a known member type.
func (t MemberType) Valid() bool {
	switch t {
	case MemberTypeTeam, MemberTypeEC:
		return true
	default:
		return false
	}
}

// Member is the flat, persisted shape of a roster entry.
//
// ECTitle is non-empty iff Type is MemberTypeEC; ImageURL is never empty once stored.
type Member struct {
	ID MemberID

	Name     string
	Batch    string
	Faculty  string
	Type     MemberType
	ECTitle  string
	ImageURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the caller-editable part of m.
func (m Member) Fields() MemberFields {
	return MemberFields{
		Name:     m.Name,
		Batch:    m.Batch,
		Faculty:  m.Faculty,
		Type:     m.Type,
		ECTitle:  m.ECTitle,
		ImageURL: m.ImageURL,
	}
}

// MemberFields is the unvalidated editable content of a member.
type MemberFields struct {
	Name     string
	Batch    string
	Faculty  string
	Type     MemberType
	ECTitle  string
	ImageURL string
}

// Variant is a validated member: either TeamMember or ECMember.
type Variant interface {
	Fields() MemberFields
	variant()
}

// TeamMember is a general roster entry. It carries no title.
type TeamMember struct {
	Name     string
	Batch    string
	Faculty  string
	ImageURL string
}

func (TeamMember) variant() {}

func (t TeamMember) Fields() MemberFields {
	return MemberFields{
		Name:     t.Name,
		Batch:    t.Batch,
		Faculty:  t.Faculty,
		Type:     MemberTypeTeam,
		ImageURL: t.ImageURL,
	}
}

// ECMember is an executive-committee entry with its role title.
type ECMember struct {
	Name     string
	Batch    string
	Faculty  string
	ImageURL string
	Title    string
}

func (ECMember) variant() {}

func (e ECMember) Fields() MemberFields {
	return MemberFields{
		Name:     e.Name,
		Batch:    e.Batch,
		Faculty:  e.Faculty,
		Type:     MemberTypeEC,
		ECTitle:  e.Title,
		ImageURL: e.ImageURL,
	}
}

// SuggestedECTitles are the titles offered by the admin form. Titles remain free-form.
var SuggestedECTitles = []string{
	TitleCaptain,
	TitleViceCaptain,
	"Technical Lead",
	"Creative Director",
	"Operations Manager",
	"Community Lead",
	"Innovation Head",
	"Quality Assurance Lead",
	"Marketing Lead",
	"Finance Head",
}
