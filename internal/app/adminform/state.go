package adminform

import "github.com/teamsite/roster-api/internal/domain"

// Mode is either CreateMode or EditMode.
type Mode interface {
	isMode()
}

type CreateMode struct{}

// EditMode edits Target; the draft started as a copy of it.
type EditMode struct {
	Target domain.Member
}

func (CreateMode) isMode() {}
func (EditMode) isMode()   {}

// Draft is the unsaved content of the form.
type Draft struct {
	Name       string
	Batch      string
	Faculty    string
	MemberType domain.MemberType
	ECTitle    string

	// ImageURL is a hosted image already resolved for this draft.
	ImageURL string
	// PreviewURL is what the form shows as the current portrait.
	PreviewURL string
}

func emptyDraft() Draft {
	return Draft{MemberType: domain.MemberTypeTeam}
}

func draftFromMember(m domain.Member) Draft {
	return Draft{
		Name:       m.Name,
		Batch:      m.Batch,
		Faculty:    m.Faculty,
		MemberType: m.Type,
		ECTitle:    m.ECTitle,
		ImageURL:   m.ImageURL,
		PreviewURL: m.ImageURL,
	}
}

// ImageFile is a portrait picked by the user and not yet uploaded.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind
	Text string
}

// State is a snapshot of the controller.
type State struct {
	Mode       Mode
	Draft      Draft
	Image      *ImageFile
	Uploading  bool
	Submitting bool
	Message    Message
	Roster     []domain.Member
}
