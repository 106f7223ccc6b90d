package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/teamsite/roster-api/internal/app/members"
	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/idempotency"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	maxBodyBytes = 1 << 20
	membersRoute = "/members"

	// abandonedClaimAge is how long an unfinished idempotent create may hold its key.
	abandonedClaimAge = 2 * time.Minute
)

// Server implements the roster endpoints on top of members.Service.
type Server struct {
	Members *members.Service
	Idem    idempotency.Store

	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewServer(membersSvc *members.Service, idem idempotency.Store) *Server {
	return &Server{
		Members: membersSvc,
		Idem:    idem,
		log:     zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Members.ListMembers(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberFromDomain(m))
	}
	writeJSON(w, http.StatusOK, ListMembersResponse{Members: out})
}

func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.memberIDParam(w, r)
	if !ok {
		return
	}
	m, err := s.Members.GetMember(r.Context(), id)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) CreateMember(w http.ResponseWriter, r *http.Request) {
	var body CreateMemberRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	ctx := r.Context()

	// The first request with a key binds it to its payload. Later requests with
	// the same payload replay the stored response; a different payload is a 409.
	// A claim is held while its create runs and released if the create fails.
	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	var (
		scope     idempotency.Scope
		claimedAt time.Time
	)
	if s.Idem != nil && idemKey != "" {
		bodyHash, err := hashCreateMemberBody(body)
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
		scope = idempotency.Scope{Key: idempotency.Key(idemKey), Route: membersRoute}
		claimedAt = s.now()
		prev, fresh, err := s.Idem.Claim(ctx, scope, bodyHash, claimedAt)
		if err == nil && !fresh && !prev.Completed() && prev.BodyHash == bodyHash &&
			claimedAt.Sub(prev.CreatedAt) > abandonedClaimAge {
			// The request holding the claim never finished; take the key over.
			if err = s.Idem.Release(ctx, scope, prev.CreatedAt); err == nil {
				prev, fresh, err = s.Idem.Claim(ctx, scope, bodyHash, claimedAt)
			}
		}
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
		if !fresh {
			switch {
			case prev.BodyHash != bodyHash:
				writeError(w, r, http.StatusConflict, CodeIdempotencyReuse, "idempotency key reuse with different payload", nil)
			case prev.Completed():
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write(prev.Response)
			default:
				writeError(w, r, http.StatusConflict, CodeIdempotencyBusy, "a request with this idempotency key is still in progress", nil)
			}
			return
		}
	}

	m, err := s.Members.CreateMember(ctx, body.toInput())
	if err != nil {
		if scope.Key != "" {
			if rerr := s.Idem.Release(context.WithoutCancel(ctx), scope, claimedAt); rerr != nil {
				s.log.Warn("releasing idempotency key", zap.String("key", idemKey), zap.Error(rerr))
			}
		}
		writeAppError(w, r, s.log, err)
		return
	}
	s.metrics.mutation("create")
	resp := MemberResponse{Member: memberFromDomain(m)}

	if scope.Key != "" {
		if b, err := json.Marshal(resp); err == nil {
			if err := s.Idem.Complete(ctx, scope, append(b, '\n')); err != nil {
				s.log.Warn("storing idempotent response", zap.String("key", idemKey), zap.Error(err))
			}
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.memberIDParam(w, r)
	if !ok {
		return
	}
	var body UpdateMemberRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	m, err := s.Members.UpdateMember(r.Context(), id, body.toInput())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	s.metrics.mutation("update")
	writeJSON(w, http.StatusOK, MemberResponse{Member: memberFromDomain(m)})
}

func (s *Server) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.memberIDParam(w, r)
	if !ok {
		return
	}
	if err := s.Members.DeleteMember(r.Context(), id); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	s.metrics.mutation("delete")
	writeJSON(w, http.StatusOK, DeleteMemberResponse{MemberID: strings.ToLower(strings.TrimSpace(id)), Deleted: true})
}

func (s *Server) memberIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "memberId", chi.URLParam(r, "memberId"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, members.CodeInvalidID, "Invalid member ID", nil)
		return "", false
	}
	return id, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body is too large", nil)
		return false
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequestBody, "request body could not be read", nil)
		return false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequestBody, "missing request body", nil)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		details := map[string]any(nil)
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			details = map[string]any{typeErr.Field: "has the wrong type"}
		}
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequestBody, "malformed JSON body", details)
		return false
	}
	return true
}

// hashCreateMemberBody hashes the body after the same trimming the service
// applies, so whitespace-only differences replay rather than conflict.
func hashCreateMemberBody(b CreateMemberRequest) (string, error) {
	canon := CreateMemberRequest{
		Name:       domain.NormalizeText(b.Name),
		Batch:      domain.NormalizeText(b.Batch),
		Faculty:    domain.NormalizeText(b.Faculty),
		MemberType: domain.NormalizeText(b.MemberType),
		ECTitle:    domain.NormalizeText(b.ECTitle),
		ImageURL:   domain.NormalizeText(b.ImageURL),
	}
	raw, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
