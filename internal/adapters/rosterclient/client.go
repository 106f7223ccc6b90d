// Package rosterclient talks to the roster HTTP API.
package rosterclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/teamsite/roster-api/internal/adapters/httpapi"
	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/rosterapi"
)

type Client struct {
	baseURL    string
	adminToken string
	http       *http.Client
}

var _ rosterapi.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAdminToken sends token as a bearer credential on write requests.
func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = strings.TrimSpace(token) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListMembers(ctx context.Context) ([]domain.Member, error) {
	var out httpapi.ListMembersResponse
	if err := c.do(ctx, http.MethodGet, "/members", nil, nil, &out); err != nil {
		return nil, err
	}
	ms := make([]domain.Member, 0, len(out.Members))
	for _, m := range out.Members {
		ms = append(ms, memberToDomain(m))
	}
	return ms, nil
}

func (c *Client) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	var out httpapi.MemberResponse
	if err := c.do(ctx, http.MethodGet, memberPath(id), nil, nil, &out); err != nil {
		return domain.Member{}, err
	}
	return memberToDomain(out.Member), nil
}

func (c *Client) CreateMember(ctx context.Context, in rosterapi.MemberInput, idempotencyKey string) (domain.Member, error) {
	body := httpapi.CreateMemberRequest{
		Name:       in.Name,
		Batch:      in.Batch,
		Faculty:    in.Faculty,
		MemberType: string(in.MemberType),
		ECTitle:    in.ECTitle,
		ImageURL:   in.ImageURL,
	}
	var hdr http.Header
	if idempotencyKey != "" {
		hdr = http.Header{httpapi.IdempotencyKeyHeader: []string{idempotencyKey}}
	}
	var out httpapi.MemberResponse
	if err := c.do(ctx, http.MethodPost, "/members", hdr, body, &out); err != nil {
		return domain.Member{}, err
	}
	return memberToDomain(out.Member), nil
}

// UpdateMember replaces every editable field. A team member is sent with an
// explicit null title.
func (c *Client) UpdateMember(ctx context.Context, id domain.MemberID, in rosterapi.MemberInput) (domain.Member, error) {
	body := httpapi.UpdateMemberRequest{
		Name:       nullable.NewNullableWithValue(in.Name),
		Batch:      nullable.NewNullableWithValue(in.Batch),
		Faculty:    nullable.NewNullableWithValue(in.Faculty),
		MemberType: nullable.NewNullableWithValue(string(in.MemberType)),
		ImageURL:   nullable.NewNullableWithValue(in.ImageURL),
	}
	if in.MemberType == domain.MemberTypeEC {
		body.ECTitle = nullable.NewNullableWithValue(in.ECTitle)
	} else {
		body.ECTitle = nullable.NewNullNullable[string]()
	}
	var out httpapi.MemberResponse
	if err := c.do(ctx, http.MethodPut, memberPath(id), nil, body, &out); err != nil {
		return domain.Member{}, err
	}
	return memberToDomain(out.Member), nil
}

func (c *Client) DeleteMember(ctx context.Context, id domain.MemberID) error {
	var out httpapi.DeleteMemberResponse
	return c.do(ctx, http.MethodDelete, memberPath(id), nil, nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.adminToken != "" && method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	e := &rosterapi.Error{Status: status, Code: "HTTP_" + fmt.Sprint(status), Message: http.StatusText(status)}
	var er httpapi.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Code != "" {
		e.Code = er.Error.Code
		e.Message = er.Error.Message
		if d, err := er.Error.Details.Get(); err == nil {
			e.Details = d
		}
		if rid, err := er.Error.RequestID.Get(); err == nil {
			e.RequestID = rid
		}
	}
	return e
}

func memberPath(id domain.MemberID) string {
	return "/members/" + url.PathEscape(string(id))
}

func memberToDomain(m httpapi.Member) domain.Member {
	return domain.Member{
		ID:        domain.MemberID(m.ID),
		Name:      m.Name,
		Batch:     m.Batch,
		Faculty:   m.Faculty,
		Type:      domain.MemberType(m.MemberType),
		ECTitle:   m.ECTitle,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
