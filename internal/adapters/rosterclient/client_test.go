package rosterclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teamsite/roster-api/internal/adapters/httpapi"
	memclock "github.com/teamsite/roster-api/internal/adapters/memory/clock"
	memidempotency "github.com/teamsite/roster-api/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/teamsite/roster-api/internal/adapters/memory/memberrepo"
	"github.com/teamsite/roster-api/internal/app/members"
	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/rosterapi"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const token = "t0ken"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := members.NewService(memmemberrepo.NewRepo(), memclock.NewManualClock(time.Unix(100, 0).UTC()))
	h := httpapi.NewRouter(httpapi.NewServer(svc, memidempotency.NewStore()), httpapi.RouterOptions{AdminToken: token})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	hc := srv.Client()
	t.Cleanup(hc.CloseIdleConnections)
	return New(srv.URL+"/", WithHTTPClient(hc), WithAdminToken(token))
}

var ann = rosterapi.MemberInput{
	Name:       "Ann",
	Batch:      "2021-2025",
	Faculty:    "Computer Science",
	MemberType: domain.MemberTypeEC,
	ECTitle:    "Captain",
	ImageURL:   "https://img.example.com/ann.jpg",
}

func TestClient_CRUD(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateMember(ctx, ann, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "Captain", created.ECTitle)

	got, err := c.GetMember(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	team := ann
	team.MemberType = domain.MemberTypeTeam
	updated, err := c.UpdateMember(ctx, created.ID, team)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberTypeTeam, updated.Type)
	assert.Empty(t, updated.ECTitle)

	ms, err := c.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, created.ID, ms[0].ID)

	require.NoError(t, c.DeleteMember(ctx, created.ID))
	_, err = c.GetMember(ctx, created.ID)
	var apiErr *rosterapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, members.CodeMemberNotFound, apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_CreateReplaysWithSameKey(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	first, err := c.CreateMember(ctx, ann, "same")
	require.NoError(t, err)
	second, err := c.CreateMember(ctx, ann, "same")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	ms, err := c.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestClient_ValidationErrorCarriesDetails(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	bad := ann
	bad.ECTitle = ""
	_, err := c.CreateMember(context.Background(), bad, "")
	var apiErr *rosterapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, members.CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Details, "ecTitle")
}

func TestClient_WritesWithoutTokenAreRejected(t *testing.T) {
	srv := newServer(t)
	hc := srv.Client()
	t.Cleanup(hc.CloseIdleConnections)
	c := New(srv.URL, WithHTTPClient(hc))

	_, err := c.CreateMember(context.Background(), ann, "")
	var apiErr *rosterapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = c.ListMembers(context.Background())
	require.NoError(t, err)
}
