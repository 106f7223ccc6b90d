package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamsite/roster-api/internal/domain"
	idempotencyport "github.com/teamsite/roster-api/internal/ports/out/idempotency"
	memberrepoport "github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	scope := idempotencyport.Scope{
		Key:   idempotencyport.Key("k-" + string(domain.NewMemberID())),
		Route: "/members",
	}
	claimedAt := time.Unix(123, 0).UTC()

	if _, fresh, err := store.Claim(ctx, scope, "hash-abc", claimedAt); err != nil || !fresh {
		t.Fatalf("first Claim: fresh=%v err=%v", fresh, err)
	}

	// A second claim keeps the first payload hash, whatever it is called with.
	got, fresh, err := store.Claim(ctx, scope, "hash-def", claimedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if fresh {
		t.Fatalf("second Claim fresh=true, want false")
	}
	if got.BodyHash != "hash-abc" || got.Completed() || !got.CreatedAt.Equal(claimedAt) {
		t.Fatalf("second Claim entry=%+v", got)
	}

	if err := store.Complete(ctx, scope, []byte(`{"member":{"id":"x"}}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _, err = store.Claim(ctx, scope, "hash-abc", claimedAt)
	if err != nil {
		t.Fatalf("Claim after Complete: %v", err)
	}
	if !got.Completed() || string(got.Response) != `{"member":{"id":"x"}}` {
		t.Fatalf("Claim after Complete entry=%+v", got)
	}

	// Release never drops a completed entry.
	if err := store.Release(ctx, scope, claimedAt); err != nil {
		t.Fatalf("Release(completed): %v", err)
	}
	if got, fresh, err := store.Claim(ctx, scope, "hash-abc", claimedAt); err != nil || fresh || !got.Completed() {
		t.Fatalf("Claim after Release(completed): fresh=%v completed=%v err=%v", fresh, got.Completed(), err)
	}

	// Release drops an open claim only when the claim time matches.
	open := idempotencyport.Scope{Key: idempotencyport.Key("k-" + string(domain.NewMemberID())), Route: "/members"}
	openedAt := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)
	if _, fresh, err := store.Claim(ctx, open, "hash-1", openedAt); err != nil || !fresh {
		t.Fatalf("Claim(open): fresh=%v err=%v", fresh, err)
	}
	if err := store.Release(ctx, open, openedAt.Add(time.Second)); err != nil {
		t.Fatalf("Release(other time): %v", err)
	}
	if _, fresh, err := store.Claim(ctx, open, "hash-1", openedAt); err != nil || fresh {
		t.Fatalf("Claim after mismatched Release: fresh=%v err=%v, want claim kept", fresh, err)
	}
	if err := store.Release(ctx, open, openedAt); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, fresh, err := store.Claim(ctx, open, "hash-2", openedAt); err != nil || !fresh {
		t.Fatalf("Claim after Release: fresh=%v err=%v, want fresh", fresh, err)
	}

	unclaimed := idempotencyport.Scope{Key: "never-claimed", Route: "/members"}
	if err := store.Complete(ctx, unclaimed, []byte("{}")); !errors.Is(err, idempotencyport.ErrNotClaimed) {
		t.Fatalf("Complete(unclaimed) err=%v, want ErrNotClaimed", err)
	}
}

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	ec := memberrepoport.Member{
		ID:        domain.NewMemberID(),
		Name:      "Ann",
		Batch:     "2021-2025",
		Faculty:   "Mechanical",
		Type:      domain.MemberTypeEC,
		ECTitle:   domain.TitleCaptain,
		ImageURL:  "https://img.example.com/ann.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, ec); err != nil {
		t.Fatalf("Create ec: %v", err)
	}
	got, err := repo.GetByID(ctx, ec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != ec.Name || got.Type != ec.Type || got.ECTitle != ec.ECTitle || got.ImageURL != ec.ImageURL {
		t.Fatalf("GetByID=%+v, want %+v", got, ec)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps=%v/%v, want %v", got.CreatedAt, got.UpdatedAt, now)
	}

	// ID uniqueness.
	if err := repo.Create(ctx, ec); !errors.Is(err, memberrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	// Unknown ids.
	missing := domain.NewMemberID()
	if _, err := repo.GetByID(ctx, missing); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, memberrepoport.Member{ID: missing, Name: "x"}); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, missing); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("Delete(missing) err=%v, want ErrNotFound", err)
	}

	// Default ordering: team before ec, then name.
	zed := memberrepoport.Member{
		ID: domain.NewMemberID(), Name: "Zed", Batch: "2022", Faculty: "Civil",
		Type: domain.MemberTypeTeam, ImageURL: "https://img.example.com/zed.jpg",
		CreatedAt: now, UpdatedAt: now,
	}
	bo := memberrepoport.Member{
		ID: domain.NewMemberID(), Name: "Bo", Batch: "2022", Faculty: "Civil",
		Type: domain.MemberTypeTeam, ImageURL: "https://img.example.com/bo.jpg",
		CreatedAt: now, UpdatedAt: now,
	}
	for _, m := range []memberrepoport.Member{zed, bo} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.Name, err)
		}
	}
	ms, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 3 || ms[0].ID != bo.ID || ms[1].ID != zed.ID || ms[2].ID != ec.ID {
		t.Fatalf("unexpected ordering: %#v", ms)
	}

	// Update replaces editable fields and keeps CreatedAt.
	later := now.Add(time.Hour)
	upd := ec
	upd.Type = domain.MemberTypeTeam
	upd.ECTitle = ""
	upd.Faculty = "Electrical"
	upd.CreatedAt = later
	upd.UpdatedAt = later
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, ec.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Type != domain.MemberTypeTeam || got.ECTitle != "" || got.Faculty != "Electrical" {
		t.Fatalf("after update=%+v", got)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(later) {
		t.Fatalf("timestamps after update=%v/%v", got.CreatedAt, got.UpdatedAt)
	}

	// Hard delete.
	if err := repo.Delete(ctx, zed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, zed.ID); !errors.Is(err, memberrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	ms, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("List after delete len=%d, want 2", len(ms))
	}
}
