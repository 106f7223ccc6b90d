// Package roster builds the public, read-only view of the roster.
package roster

import (
	"context"

	"github.com/teamsite/roster-api/internal/domain"
)

// Lister is the read half of the roster API.
type Lister interface {
	ListMembers(ctx context.Context) ([]domain.Member, error)
}

// Card is one member as shown on the roster page.
type Card struct {
	Member domain.Member
	// Featured marks leadership titles that get the highlighted card.
	Featured bool
}

type View struct {
	Executive []Card
	Team      []Card
}

type Display struct {
	src Lister
}

func NewDisplay(src Lister) *Display {
	return &Display{src: src}
}

// Load fetches the roster once and groups it.
func (d *Display) Load(ctx context.Context) (View, error) {
	ms, err := d.src.ListMembers(ctx)
	if err != nil {
		return View{}, err
	}
	return Group(ms), nil
}

// Group splits ms by member type and orders each group. ms is not modified.
func Group(ms []domain.Member) View {
	var ec, team []domain.Member
	for _, m := range ms {
		switch m.Type {
		case domain.MemberTypeEC:
			ec = append(ec, m)
		case domain.MemberTypeTeam:
			team = append(team, m)
		}
	}
	domain.SortExecutive(ec)
	domain.SortTeam(team)

	v := View{
		Executive: make([]Card, 0, len(ec)),
		Team:      make([]Card, 0, len(team)),
	}
	for _, m := range ec {
		v.Executive = append(v.Executive, Card{Member: m, Featured: domain.IsLeadershipTitle(m.ECTitle)})
	}
	for _, m := range team {
		v.Team = append(v.Team, Card{Member: m})
	}
	return v
}
