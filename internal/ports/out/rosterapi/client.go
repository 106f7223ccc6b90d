package rosterapi

import (
	"context"
	"fmt"

	"github.com/teamsite/roster-api/internal/domain"
)

// MemberInput is the full set of editable fields sent on create and update.
type MemberInput struct {
	Name       string
	Batch      string
	Faculty    string
	MemberType domain.MemberType
	ECTitle    string
	ImageURL   string
}

// Client is the roster API as seen by its consumers.
type Client interface {
	ListMembers(ctx context.Context) ([]domain.Member, error)
	GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error)
	CreateMember(ctx context.Context, in MemberInput, idempotencyKey string) (domain.Member, error)
	UpdateMember(ctx context.Context, id domain.MemberID, in MemberInput) (domain.Member, error)
	DeleteMember(ctx context.Context, id domain.MemberID) error
}

// Error is a non-2xx answer from the roster API.
type Error struct {
	Status    int
	Code      string
	Message   string
	Details   map[string]any
	RequestID string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("roster api: %d %s: %s", e.Status, e.Code, e.Message)
}
