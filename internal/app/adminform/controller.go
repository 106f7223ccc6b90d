// Package adminform drives the admin create/edit form: local validation,
// portrait upload and the roster write.
package adminform

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/imagehost"
	"github.com/teamsite/roster-api/internal/ports/out/rosterapi"
)

// MaxImageBytes is the largest portrait accepted for upload.
const MaxImageBytes = 5 << 20

type Controller struct {
	api      rosterapi.Client
	uploader imagehost.Uploader
	log      *zap.Logger
	newKey   func() string

	mu         sync.Mutex
	mode       Mode
	draft      Draft
	image      *ImageFile
	uploading  bool
	submitting bool
	message    Message
	roster     []domain.Member
	createKey  string
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func New(api rosterapi.Client, uploader imagehost.Uploader, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		uploader: uploader,
		log:      zap.NewNop(),
		newKey:   uuid.NewString,
		mode:     CreateMode{},
		draft:    emptyDraft(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.createKey = c.newKey()
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Mode:       c.mode,
		Draft:      c.draft,
		Uploading:  c.uploading,
		Submitting: c.submitting,
		Message:    c.message,
		Roster:     slices.Clone(c.roster),
	}
	if c.image != nil {
		img := *c.image
		s.Image = &img
	}
	return s
}

// StartEdit loads m into the draft. Any pending image is discarded.
func (c *Controller) StartEdit(m domain.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = EditMode{Target: m}
	c.draft = draftFromMember(m)
	c.image = nil
	c.message = Message{}
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// SetDraft edits the draft in place. Editing rotates the create idempotency key,
// since the key identifies one exact payload.
func (c *Controller) SetDraft(edit func(*Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.draft
	edit(&c.draft)
	if c.draft != before {
		c.createKey = c.newKey()
	}
}

// SelectImage stages f for upload. A rejected file leaves any earlier selection in place.
func (c *Controller) SelectImage(f ImageFile) error {
	if err := checkImage(f); err != nil {
		c.mu.Lock()
		c.message = Message{Kind: MessageError, Text: capitalize(err.Error())}
		c.mu.Unlock()
		return err
	}
	staged := f
	staged.Data = slices.Clone(f.Data)
	if staged.ContentType == "" {
		staged.ContentType = mimetype.Detect(staged.Data).String()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = &staged
	c.message = Message{}
	c.createKey = c.newKey()
	return nil
}

func (c *Controller) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.image != nil {
		c.image = nil
		c.createKey = c.newKey()
	}
}

func checkImage(f ImageFile) error {
	if len(f.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if len(f.Data) == 0 {
		return ErrNotAnImage
	}
	if f.ContentType != "" && !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return ErrNotAnImage
	}
	sniffed := mimetype.Detect(f.Data)
	for m := sniffed; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return nil
		}
	}
	return ErrNotAnImage
}

// Submit validates the draft, uploads the staged image if there is one and
// writes the member. On failure the draft is kept; an image that was already
// uploaded stays resolved in the draft so a retry does not upload it again.
func (c *Controller) Submit(ctx context.Context) (domain.Member, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return domain.Member{}, ErrSubmitInProgress
	}
	if err := validateDraft(c.draft, c.image != nil); err != nil {
		c.message = Message{Kind: MessageError, Text: "Please fill all required fields: " + strings.Join(err.Fields.Fields(), ", ")}
		c.mu.Unlock()
		return domain.Member{}, err
	}
	c.submitting = true
	c.message = Message{}
	mode := c.mode
	draft := c.draft
	image := c.image
	key := c.createKey
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	uploaded := false
	if image != nil {
		c.setUploading(true)
		url, err := c.uploader.Upload(ctx, imagehost.Image{
			Filename:    image.Filename,
			ContentType: image.ContentType,
			Data:        image.Data,
		})
		c.setUploading(false)
		if err != nil {
			c.log.Warn("image upload failed", zap.String("kind", string(imagehost.KindOf(err))), zap.Error(err))
			c.mu.Lock()
			c.message = Message{Kind: MessageError, Text: uploadFailureText(err)}
			c.mu.Unlock()
			return domain.Member{}, &SubmitError{Stage: StageUpload, Err: err}
		}
		uploaded = true
		draft.ImageURL = url
		draft.PreviewURL = url

		c.mu.Lock()
		if c.image == image {
			c.draft.ImageURL = url
			c.draft.PreviewURL = url
			c.image = nil
		}
		c.mu.Unlock()
	}

	in := rosterapi.MemberInput{
		Name:       domain.NormalizeText(draft.Name),
		Batch:      domain.NormalizeText(draft.Batch),
		Faculty:    domain.NormalizeText(draft.Faculty),
		MemberType: draft.MemberType,
		ImageURL:   draft.ImageURL,
	}
	if draft.MemberType == domain.MemberTypeEC {
		in.ECTitle = domain.NormalizeText(draft.ECTitle)
	}

	var (
		saved domain.Member
		err   error
		verb  string
	)
	switch m := mode.(type) {
	case EditMode:
		verb = "update"
		saved, err = c.api.UpdateMember(ctx, m.Target.ID, in)
	default:
		verb = "add"
		saved, err = c.api.CreateMember(ctx, in, key)
	}
	if err != nil {
		c.log.Warn("member write failed", zap.String("op", verb), zap.Bool("imageUploaded", uploaded), zap.Error(err))
		c.mu.Lock()
		c.message = Message{Kind: MessageError, Text: writeFailureText(verb, err, uploaded)}
		c.mu.Unlock()
		return domain.Member{}, &SubmitError{Stage: StageWrite, ImageUploaded: uploaded, Err: err}
	}

	c.mu.Lock()
	c.resetLocked()
	if verb == "update" {
		c.message = Message{Kind: MessageSuccess, Text: "Member updated successfully!"}
	} else {
		c.message = Message{Kind: MessageSuccess, Text: "Member added successfully!"}
	}
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("roster refresh after submit failed", zap.Error(err))
	}
	return saved, nil
}

// Delete removes a member once confirm approves it. The hosted image is left alone.
// It reports whether the member was deleted.
func (c *Controller) Delete(ctx context.Context, id domain.MemberID, confirm func(domain.Member) bool) (bool, error) {
	target, ok := c.cachedMember(id)
	if !ok {
		m, err := c.api.GetMember(ctx, id)
		if err != nil {
			return false, err
		}
		target = m
	}
	if confirm == nil || !confirm(target) {
		return false, nil
	}

	if err := c.api.DeleteMember(ctx, id); err != nil {
		c.log.Warn("member delete failed", zap.String("memberId", string(id)), zap.Error(err))
		c.mu.Lock()
		c.message = Message{Kind: MessageError, Text: "Failed to delete member"}
		c.mu.Unlock()
		var ae *rosterapi.Error
		if errors.As(err, &ae) && ae.Status == http.StatusNotFound {
			c.dropFromRoster(id)
		}
		return false, err
	}

	c.dropFromRoster(id)
	c.mu.Lock()
	if em, ok := c.mode.(EditMode); ok && em.Target.ID == id {
		c.resetLocked()
	}
	c.message = Message{Kind: MessageSuccess, Text: "Member deleted successfully"}
	c.mu.Unlock()
	return true, nil
}

// Refresh replaces the cached roster with a fresh read-all.
func (c *Controller) Refresh(ctx context.Context) error {
	ms, err := c.api.ListMembers(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.roster = ms
	c.mu.Unlock()
	return nil
}

func (c *Controller) cachedMember(id domain.MemberID) (domain.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.roster {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Member{}, false
}

func (c *Controller) dropFromRoster(id domain.MemberID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roster = slices.DeleteFunc(slices.Clone(c.roster), func(m domain.Member) bool { return m.ID == id })
}

func (c *Controller) setUploading(v bool) {
	c.mu.Lock()
	c.uploading = v
	c.mu.Unlock()
}

// resetLocked returns to create mode with an empty draft. c.mu must be held.
func (c *Controller) resetLocked() {
	c.mode = CreateMode{}
	c.draft = emptyDraft()
	c.image = nil
	c.createKey = c.newKey()
}

// validateDraft applies the member rules to the draft. A staged image stands
// in for the URL it will resolve to.
func validateDraft(d Draft, hasImage bool) *ValidationError {
	_, err := domain.Classify(domain.MemberFields{
		Name:     d.Name,
		Batch:    d.Batch,
		Faculty:  d.Faculty,
		Type:     d.MemberType,
		ECTitle:  d.ECTitle,
		ImageURL: d.ImageURL,
	})
	var fe domain.FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	if hasImage {
		delete(fe, domain.FieldImageURL)
	}
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
