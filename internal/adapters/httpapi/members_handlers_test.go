package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	memclock "github.com/teamsite/roster-api/internal/adapters/memory/clock"
	memidempotency "github.com/teamsite/roster-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/teamsite/roster-api/internal/adapters/memory/memberrepo"
	"github.com/teamsite/roster-api/internal/app/members"
	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

const testImageURL = "https://res.cloudinary.com/demo/image/upload/v1/team_members/ann.jpg"

func newTestRouter(t *testing.T, adminToken string) http.Handler {
	t.Helper()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	svc := members.NewService(memmemberrepo.NewRepo(), clk)
	api := NewServer(svc, memidempotency.NewStore())
	return NewRouter(api, RouterOptions{Registry: prometheus.NewRegistry(), AdminToken: adminToken})
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, rec.Body.String())
	}
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, status, rec.Body.String())
	}
	er := decode[ErrorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code=%q want=%q body=%s", er.Error.Code, code, rec.Body.String())
	}
	return er
}

func annBody() map[string]any {
	return map[string]any{
		"name":       "Ann",
		"batch":      "2021-2025",
		"faculty":    "Computer Science",
		"memberType": "ec",
		"ecTitle":    "Captain",
		"imageUrl":   testImageURL,
	}
}

func TestMembers_CreateThenGet(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/members", annBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[MemberResponse](t, rec).Member
	if created.ID == "" || created.Name != "Ann" || created.ECTitle != "Captain" || created.ImageURL != testImageURL {
		t.Fatalf("created=%+v", created)
	}

	rec = do(t, h, http.MethodGet, "/members/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[MemberResponse](t, rec).Member
	if got != created {
		t.Fatalf("got=%+v want=%+v", got, created)
	}
}

func TestMembers_CreateValidationListsEveryField(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	body := annBody()
	delete(body, "ecTitle")
	body["name"] = "   "
	rec := do(t, h, http.MethodPost, "/members", body)
	er := requireError(t, rec, http.StatusBadRequest, members.CodeValidation)
	details, err := er.Error.Details.Get()
	if err != nil {
		t.Fatalf("details missing: %s", rec.Body.String())
	}
	for _, f := range []string{"name", "ecTitle"} {
		if _, ok := details[f]; !ok {
			t.Fatalf("details=%v missing %s", details, f)
		}
	}

	rec = do(t, h, http.MethodGet, "/members", nil)
	if n := len(decode[ListMembersResponse](t, rec).Members); n != 0 {
		t.Fatalf("members=%d, want none after rejected create", n)
	}
}

func TestMembers_MalformedBody(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	requireError(t, do(t, h, http.MethodPost, "/members", `{"name":`), http.StatusBadRequest, CodeInvalidRequestBody)
	requireError(t, do(t, h, http.MethodPost, "/members", `{"name":42}`), http.StatusBadRequest, CodeInvalidRequestBody)
	requireError(t, do(t, h, http.MethodPost, "/members", ``), http.StatusBadRequest, CodeInvalidRequestBody)
}

func TestMembers_IdentifierErrors(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")
	missing := string(domain.NewMemberID())

	requireError(t, do(t, h, http.MethodGet, "/members/not-an-id", nil), http.StatusBadRequest, members.CodeInvalidID)
	requireError(t, do(t, h, http.MethodGet, "/members/"+missing, nil), http.StatusNotFound, members.CodeMemberNotFound)
	requireError(t, do(t, h, http.MethodPut, "/members/123", map[string]any{"name": "x"}), http.StatusBadRequest, members.CodeInvalidID)
	requireError(t, do(t, h, http.MethodPut, "/members/"+missing, map[string]any{"name": "x"}), http.StatusNotFound, members.CodeMemberNotFound)
	requireError(t, do(t, h, http.MethodDelete, "/members/zz", nil), http.StatusBadRequest, members.CodeInvalidID)
	requireError(t, do(t, h, http.MethodDelete, "/members/"+missing, nil), http.StatusNotFound, members.CodeMemberNotFound)
}

func TestMembers_UpdateIgnoresBodyIdentifier(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	created := decode[MemberResponse](t, do(t, h, http.MethodPost, "/members", annBody())).Member
	other := string(domain.NewMemberID())

	rec := do(t, h, http.MethodPut, "/members/"+created.ID, map[string]any{
		"id":      other,
		"_id":     other,
		"faculty": "Electrical",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	updated := decode[MemberResponse](t, rec).Member
	if updated.ID != created.ID || updated.Faculty != "Electrical" || updated.Name != "Ann" {
		t.Fatalf("updated=%+v", updated)
	}
	requireError(t, do(t, h, http.MethodGet, "/members/"+other, nil), http.StatusNotFound, members.CodeMemberNotFound)
}

func TestMembers_UpdateToECWithoutTitleFails(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	body := annBody()
	body["memberType"] = "team"
	delete(body, "ecTitle")
	created := decode[MemberResponse](t, do(t, h, http.MethodPost, "/members", body)).Member

	rec := do(t, h, http.MethodPut, "/members/"+created.ID, map[string]any{"memberType": "ec"})
	requireError(t, rec, http.StatusBadRequest, members.CodeValidation)

	got := decode[MemberResponse](t, do(t, h, http.MethodGet, "/members/"+created.ID, nil)).Member
	if got.MemberType != "team" {
		t.Fatalf("memberType=%q, rejected update must not persist", got.MemberType)
	}
}

func TestMembers_DeleteThenGet(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	created := decode[MemberResponse](t, do(t, h, http.MethodPost, "/members", annBody())).Member
	rec := do(t, h, http.MethodDelete, "/members/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	del := decode[DeleteMemberResponse](t, rec)
	if !del.Deleted || del.MemberID != created.ID {
		t.Fatalf("delete response=%+v", del)
	}
	requireError(t, do(t, h, http.MethodGet, "/members/"+created.ID, nil), http.StatusNotFound, members.CodeMemberNotFound)
}

func TestMembers_ListDefaultOrder(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	ann := annBody()
	zed := annBody()
	zed["name"], zed["memberType"] = "Zed", "team"
	bo := annBody()
	bo["name"], bo["memberType"] = "Bo", "team"
	for _, b := range []map[string]any{ann, zed, bo} {
		if rec := do(t, h, http.MethodPost, "/members", b); rec.Code != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
		}
	}

	ms := decode[ListMembersResponse](t, do(t, h, http.MethodGet, "/members", nil)).Members
	var names []string
	for _, m := range ms {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "Bo,Zed,Ann" {
		t.Fatalf("order=%v", names)
	}
	if ms[0].ECTitle != "" {
		t.Fatalf("team member carries ecTitle %q", ms[0].ECTitle)
	}
}

func TestMembers_IdempotentCreate(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	first := do(t, h, http.MethodPost, "/members", annBody(), IdempotencyKeyHeader, "k-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", first.Code, first.Body.String())
	}

	// Whitespace-only differences canonicalise to the same request.
	padded := annBody()
	padded["name"] = "  Ann "
	replay := do(t, h, http.MethodPost, "/members", padded, IdempotencyKeyHeader, "k-1")
	if replay.Code != http.StatusCreated {
		t.Fatalf("replay status=%d body=%s", replay.Code, replay.Body.String())
	}
	if decode[MemberResponse](t, replay).Member.ID != decode[MemberResponse](t, first).Member.ID {
		t.Fatalf("replay created a new member")
	}

	other := annBody()
	other["name"] = "Someone Else"
	requireError(t, do(t, h, http.MethodPost, "/members", other, IdempotencyKeyHeader, "k-1"), http.StatusConflict, CodeIdempotencyReuse)

	if n := len(decode[ListMembersResponse](t, do(t, h, http.MethodGet, "/members", nil)).Members); n != 1 {
		t.Fatalf("members=%d, want 1", n)
	}
}

func TestMembers_AdminTokenGuardsWritesOnly(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "s3cret")

	requireError(t, do(t, h, http.MethodPost, "/members", annBody()), http.StatusUnauthorized, CodeUnauthorized)

	rec := do(t, h, http.MethodPost, "/members", annBody(), "Authorization", "Bearer s3cret")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	id := decode[MemberResponse](t, rec).Member.ID

	if rec := do(t, h, http.MethodGet, "/members", nil); rec.Code != http.StatusOK {
		t.Fatalf("list status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/members/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}
	requireError(t, do(t, h, http.MethodDelete, "/members/"+id, nil), http.StatusUnauthorized, CodeUnauthorized)
}

type failingRepo struct{ memberrepo.Repository }

func (failingRepo) List(context.Context) ([]memberrepo.Member, error) {
	return nil, errors.New("connection refused: 10.0.0.7:27017")
}

func TestMembers_InternalFailureIsGeneric(t *testing.T) {
	t.Parallel()

	svc := members.NewService(failingRepo{}, memclock.NewManualClock(time.Unix(0, 0)))
	h := NewRouter(NewServer(svc, nil), RouterOptions{})

	rec := do(t, h, http.MethodGet, "/members", nil)
	er := requireError(t, rec, http.StatusInternalServerError, CodeInternal)
	if strings.Contains(rec.Body.String(), "10.0.0.7") {
		t.Fatalf("infrastructure detail leaked: %s", rec.Body.String())
	}
	if !er.Error.RequestID.IsSpecified() {
		t.Fatalf("expected requestId in error body: %s", rec.Body.String())
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rec.Code, rec.Body.String())
	}

	_ = do(t, h, http.MethodPost, "/members", annBody())
	rec = do(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`roster_member_mutations_total{op="create"} 1`,
		`roster_http_requests_total{method="POST"`,
		`status="201"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
