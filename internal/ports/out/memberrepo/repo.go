package memberrepo

import (
	"context"
	"time"

	"github.com/teamsite/roster-api/internal/domain"
)

// Member is the persistence shape used by the member repository.
// It is an internal record, not an HTTP DTO. Callers are responsible for the
// member invariants; repositories store what they are given.
type Member struct {
	ID domain.MemberID

	Name     string
	Batch    string
	Faculty  string
	Type     domain.MemberType
	ECTitle  string
	ImageURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted members.
//
// Result ordering expectations:
//   - List returns team members before ec members, then name ascending, then ID,
//     so that the default roster order is deterministic across backends.
type Repository interface {
	Create(ctx context.Context, m Member) error
	// Update replaces every stored field of the member with the same ID except CreatedAt.
	Update(ctx context.Context, m Member) error
	Delete(ctx context.Context, id domain.MemberID) error

	GetByID(ctx context.Context, id domain.MemberID) (Member, error)
	List(ctx context.Context) ([]Member, error)
}

// Less reports whether a sorts before b in the List order.
func Less(a, b Member) bool {
	if a.Type != b.Type {
		// memberType descending: "team" > "ec".
		return a.Type > b.Type
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
