package members

import (
	"context"
	"errors"
	"time"

	"github.com/teamsite/roster-api/internal/domain"
	clockport "github.com/teamsite/roster-api/internal/ports/out/clock"
	"github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

type Service struct {
	repo memberrepo.Repository
	clk  clockport.Clock

	newMemberID func() domain.MemberID
}

func NewService(repo memberrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:        repo,
		clk:         clk,
		newMemberID: domain.NewMemberID,
	}
}

func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	ms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (s *Service) GetMember(ctx context.Context, rawID string) (domain.Member, error) {
	m, err := s.load(ctx, rawID)
	if err != nil {
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (domain.Member, error) {
	v, err := classify(in.fields())
	if err != nil {
		return domain.Member{}, err
	}

	now := s.now()
	m := fromVariant(s.newMemberID(), v)
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.repo.Create(ctx, m); err != nil {
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

// UpdateMember applies in to the stored member and validates the merged result,
// so switching a team member to ec without a title in the same request fails.
func (s *Service) UpdateMember(ctx context.Context, rawID string, in UpdateMemberInput) (domain.Member, error) {
	existing, err := s.load(ctx, rawID)
	if err != nil {
		return domain.Member{}, err
	}

	f := domain.MemberFields{
		Name:     existing.Name,
		Batch:    existing.Batch,
		Faculty:  existing.Faculty,
		Type:     existing.Type,
		ECTitle:  existing.ECTitle,
		ImageURL: existing.ImageURL,
	}
	nulls := domain.FieldErrors{}
	applyString := func(dst *string, name string, o Optional[string]) {
		if !o.IsSpecified() {
			return
		}
		if o.IsNull() {
			nulls[name] = "cannot be null"
			return
		}
		*dst = o.Value()
	}
	applyString(&f.Name, domain.FieldName, in.Name)
	applyString(&f.Batch, domain.FieldBatch, in.Batch)
	applyString(&f.Faculty, domain.FieldFaculty, in.Faculty)
	applyString(&f.ImageURL, domain.FieldImageURL, in.ImageURL)
	if in.MemberType.IsSpecified() {
		if in.MemberType.IsNull() {
			nulls[domain.FieldMemberType] = "cannot be null"
		} else {
			f.Type = domain.MemberType(in.MemberType.Value())
		}
	}
	if in.ECTitle.IsSpecified() {
		if in.ECTitle.IsNull() {
			f.ECTitle = ""
		} else {
			f.ECTitle = in.ECTitle.Value()
		}
	}

	v, verr := domain.Classify(f)
	if verr != nil || len(nulls) > 0 {
		merged := domain.FieldErrors{}
		var fe domain.FieldErrors
		if errors.As(verr, &fe) {
			for k, msg := range fe {
				merged[k] = msg
			}
		}
		for k, msg := range nulls {
			merged[k] = msg
		}
		return domain.Member{}, validationError(merged)
	}

	m := fromVariant(existing.ID, v)
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			// Deleted between load and write.
			return domain.Member{}, errNotFound()
		}
		return domain.Member{}, err
	}
	return toDomain(m), nil
}

func (s *Service) DeleteMember(ctx context.Context, rawID string) error {
	id, err := domain.ParseMemberID(rawID)
	if err != nil {
		return errInvalidID()
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return errNotFound()
		}
		return err
	}
	return nil
}

func (s *Service) load(ctx context.Context, rawID string) (memberrepo.Member, error) {
	id, err := domain.ParseMemberID(rawID)
	if err != nil {
		return memberrepo.Member{}, errInvalidID()
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return memberrepo.Member{}, errNotFound()
		}
		return memberrepo.Member{}, err
	}
	return m, nil
}

// now is truncated to what every storage backend can round-trip.
func (s *Service) now() time.Time {
	return s.clk.Now().UTC().Truncate(time.Millisecond)
}

func classify(f domain.MemberFields) (domain.Variant, error) {
	v, err := domain.Classify(f)
	if err != nil {
		var fe domain.FieldErrors
		if errors.As(err, &fe) {
			return nil, validationError(fe)
		}
		return nil, err
	}
	return v, nil
}

func validationError(fe domain.FieldErrors) *Error {
	return &Error{
		Status:  400,
		Code:    CodeValidation,
		Message: "Validation error",
		Details: fe.Details(),
	}
}

func fromVariant(id domain.MemberID, v domain.Variant) memberrepo.Member {
	f := v.Fields()
	return memberrepo.Member{
		ID:       id,
		Name:     f.Name,
		Batch:    f.Batch,
		Faculty:  f.Faculty,
		Type:     f.Type,
		ECTitle:  f.ECTitle,
		ImageURL: f.ImageURL,
	}
}

func toDomain(m memberrepo.Member) domain.Member {
	return domain.Member{
		ID:        m.ID,
		Name:      m.Name,
		Batch:     m.Batch,
		Faculty:   m.Faculty,
		Type:      m.Type,
		ECTitle:   m.ECTitle,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
