package memberrepo

import (
	"context"
	"testing"
	"time"

	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

func TestRepo_CreateAndGet(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	now := time.Unix(100, 0).UTC()

	m := memberrepo.Member{
		ID:        domain.MemberID("64b7f0c2a1b2c3d4e5f60718"),
		Name:      "Ann",
		Batch:     "2021-2025",
		Faculty:   "Computer Science",
		Type:      domain.MemberTypeEC,
		ECTitle:   "Captain",
		ImageURL:  "https://img.example.com/ann.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.Create(context.Background(), m); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	got, err := r.GetByID(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if got != m {
		t.Fatalf("GetByID()=%+v, want %+v", got, m)
	}
}

func TestRepo_CreateRejectsDuplicateAndEmptyID(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	m1 := memberrepo.Member{ID: "m1", Name: "A", Type: domain.MemberTypeTeam}
	m2 := memberrepo.Member{ID: "m1", Name: "B", Type: domain.MemberTypeTeam}

	if err := r.Create(context.Background(), m1); err != nil {
		t.Fatalf("Create(m1) err=%v", err)
	}
	if err := r.Create(context.Background(), m2); err != memberrepo.ErrAlreadyExists {
		t.Fatalf("Create(m2) err=%v, want %v", err, memberrepo.ErrAlreadyExists)
	}
	if err := r.Create(context.Background(), memberrepo.Member{Name: "C"}); err != memberrepo.ErrAlreadyExists {
		t.Fatalf("Create(empty id) err=%v, want %v", err, memberrepo.ErrAlreadyExists)
	}
}

func TestRepo_UpdateRequiresExistingAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	created := time.Unix(100, 0).UTC()

	m := memberrepo.Member{ID: "m1", Name: "Alice", Type: domain.MemberTypeTeam, CreatedAt: created, UpdatedAt: created}
	if err := r.Update(context.Background(), m); err != memberrepo.ErrNotFound {
		t.Fatalf("Update(nonexistent) err=%v, want %v", err, memberrepo.ErrNotFound)
	}
	if err := r.Create(context.Background(), m); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	later := created.Add(time.Minute)
	updated := memberrepo.Member{ID: "m1", Name: "Alice Z", Type: domain.MemberTypeTeam, CreatedAt: later, UpdatedAt: later}
	if err := r.Update(context.Background(), updated); err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	got, err := r.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if got.Name != "Alice Z" || !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(later) {
		t.Fatalf("GetByID() after update=%+v", got)
	}
}

func TestRepo_ListOrdersTeamFirstThenName(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	_ = r.Create(context.Background(), memberrepo.Member{ID: "m1", Name: "Ann", Type: domain.MemberTypeEC, ECTitle: "Captain"})
	_ = r.Create(context.Background(), memberrepo.Member{ID: "m2", Name: "bob", Type: domain.MemberTypeTeam})
	_ = r.Create(context.Background(), memberrepo.Member{ID: "m3", Name: "Bob", Type: domain.MemberTypeTeam})
	_ = r.Create(context.Background(), memberrepo.Member{ID: "m4", Name: "Bob", Type: domain.MemberTypeTeam})

	got, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(got) != 4 {
		t.Fatalf("List() len=%d, want 4", len(got))
	}
	// Byte-wise name order; equal names tie-break by ID.
	want := []domain.MemberID{"m3", "m4", "m2", "m1"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("List() order=%v, want %v", []domain.MemberID{got[0].ID, got[1].ID, got[2].ID, got[3].ID}, want)
		}
	}
}

func TestRepo_DeleteIsHard(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	_ = r.Create(context.Background(), memberrepo.Member{ID: "m1", Name: "Ann", Type: domain.MemberTypeTeam})

	if err := r.Delete(context.Background(), "m1"); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if err := r.Delete(context.Background(), "m1"); err != memberrepo.ErrNotFound {
		t.Fatalf("Delete() twice err=%v, want %v", err, memberrepo.ErrNotFound)
	}
	// The ID can be reused once the record is gone.
	if err := r.Create(context.Background(), memberrepo.Member{ID: "m1", Name: "Ann", Type: domain.MemberTypeTeam}); err != nil {
		t.Fatalf("Create() after delete err=%v", err)
	}
}
