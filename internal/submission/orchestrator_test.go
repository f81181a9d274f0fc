package submission

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"civicsnap/internal/geocode"
	"civicsnap/internal/notify"
	"civicsnap/internal/session"
	"civicsnap/internal/storage"
	"civicsnap/internal/store"
	"civicsnap/internal/verify"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Uploader      = (*storage.Gateway)(nil)
	_ Verifier      = (*verify.Gateway)(nil)
	_ ReportCreator = (*store.MemoryReportRepository)(nil)
	_ ReportCreator = (*store.ReportRepository)(nil)
	_ Geocoder      = (*geocode.Nominatim)(nil)
)

type fakeUploader struct {
	calls   int
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, mimeType, name string) (*types.UploadResult, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.UploadResult{Path: "public/1.jpg", PublicURL: "https://cdn.example.com/public/1.jpg"}, nil
}

type fakeVerifier struct {
	calls   int
	outcome *types.Outcome
	err     error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string, _ []byte, _ string) (*types.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

type countingCreator struct {
	inner store.ReportStore
	calls int
	err   error
}

func (c *countingCreator) CreateReport(ctx context.Context, in *types.CreateReport) (*types.Report, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.CreateReport(ctx, in)
}

type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

type fakeGeocoder struct {
	addr string
	err  error
}

func (f *fakeGeocoder) Reverse(_ context.Context, _, _ float64) (string, error) {
	return f.addr, f.err
}

const acceptedReply = "Description of Issue:\nLarge pothole in the right lane\nSpecific Location Details:\n123 Main St, near the bus stop"

type harness struct {
	o        *Orchestrator
	uploader *fakeUploader
	verifier *fakeVerifier
	creator  *countingCreator
	notifier *fakeNotifier
	repo     *store.MemoryReportRepository
	session  *session.Session
}

func newHarness(outcome *types.Outcome) *harness {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := store.NewMemoryReportRepository()
	h := &harness{
		uploader: &fakeUploader{},
		verifier: &fakeVerifier{outcome: outcome},
		creator:  &countingCreator{inner: repo},
		notifier: &fakeNotifier{},
		repo:     repo,
		session:  session.New(),
	}

	h.o = New(Deps{
		Uploader:      h.uploader,
		Verifier:      h.verifier,
		Reports:       h.creator,
		Notifier:      h.notifier,
		Geocoder:      &fakeGeocoder{addr: "123 Main St"},
		Session:       h.session,
		Logger:        logger,
		MaxImageBytes: 1024,
	})

	return h
}

func (h *harness) fillDraft(t *testing.T) {
	t.Helper()
	require.NoError(t, h.o.AcceptImage([]byte("jpeg-bytes"), "image/jpeg", "photo.jpg"))
	require.NoError(t, h.o.SetDescription("pothole on main"))
	require.NoError(t, h.o.SetLocation("Main St"))
	require.Equal(t, StepReview, h.o.Draft().Step)
}

func TestStepTransitions(t *testing.T) {
	h := newHarness(nil)

	assert.Equal(t, StepCapture, h.o.Draft().Step)

	require.NoError(t, h.o.AcceptImage([]byte("img"), "image/png", "a.png"))
	assert.Equal(t, StepDescribe, h.o.Draft().Step)

	require.NoError(t, h.o.SetDescription("broken streetlight"))
	assert.Equal(t, StepLocate, h.o.Draft().Step)

	err := h.o.SetLocation("   ")
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, StepLocate, h.o.Draft().Step)

	require.NoError(t, h.o.SetLocation("5th and Elm"))
	assert.Equal(t, StepReview, h.o.Draft().Step)
}

func TestSetDescription_RequiresTwoWords(t *testing.T) {
	h := newHarness(nil)
	require.NoError(t, h.o.AcceptImage([]byte("img"), "image/png", "a.png"))

	before := h.o.Draft()

	err := h.o.SetDescription("pothole")
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, before, h.o.Draft())

	err = h.o.SetDescription("   pothole   ")
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, StepDescribe, h.o.Draft().Step)
}

func TestAcceptImage_Oversized(t *testing.T) {
	h := newHarness(nil)

	err := h.o.AcceptImage(make([]byte, 1025), "image/jpeg", "big.jpg")
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, StepCapture, h.o.Draft().Step)
	assert.Empty(t, h.o.Draft().Image)

	require.NoError(t, h.o.AcceptImage(make([]byte, 1024), "image/jpeg", "max.jpg"))
	assert.Equal(t, StepDescribe, h.o.Draft().Step)
}

func TestAcceptImage_SniffsMimeType(t *testing.T) {
	h := newHarness(nil)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	require.NoError(t, h.o.AcceptImage(png, "application/octet-stream", "camera"))
	assert.Equal(t, "image/png", h.o.Draft().MimeType)
}

func TestSetDescription_BeforeImage(t *testing.T) {
	h := newHarness(nil)
	require.ErrorIs(t, h.o.SetDescription("broken light"), types.ErrValidation)
	assert.Equal(t, StepCapture, h.o.Draft().Step)
}

func TestSubmit_Accepted(t *testing.T) {
	h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
	h.session.Set(types.Identity{UserID: "u1", Email: "resident@example.com"})
	h.fillDraft(t)

	report, err := h.o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Large pothole in the right lane", report.Description)
	require.NotNil(t, report.Location)
	assert.Equal(t, "123 Main St, near the bus stop", *report.Location)
	assert.Equal(t, "https://cdn.example.com/public/1.jpg", report.ImageURL)
	require.NotNil(t, report.UserID)
	assert.Equal(t, "u1", *report.UserID)
	assert.False(t, report.IsPublic)

	page, err := h.repo.Reports(context.Background(), types.ReportListOptions{UserID: "u1"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "resident@example.com", h.notifier.sent[0].ReporterEmail)
	assert.Equal(t, report.ID, h.notifier.sent[0].Report.ID)

	assert.Equal(t, Draft{Step: StepDone}, h.o.Draft())
}

func TestSubmit_PublicFlag(t *testing.T) {
	h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
	h.session.Set(types.Identity{UserID: "u1"})
	h.fillDraft(t)
	require.NoError(t, h.o.SetPublic(true))

	report, err := h.o.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.IsPublic)
}

func TestSubmit_Anonymous(t *testing.T) {
	h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: "The image shows a pothole."})
	h.fillDraft(t)
	require.NoError(t, h.o.SetPublic(true))

	report, err := h.o.Submit(context.Background())
	require.NoError(t, err)

	assert.Nil(t, report.UserID)
	assert.False(t, report.IsPublic)
	// no labels in the reply, so the draft text is kept
	assert.Equal(t, "pothole on main", report.Description)
	assert.Equal(t, "Main St", *report.Location)
	assert.Empty(t, h.notifier.sent[0].ReporterEmail)
}

func TestSubmit_SessionChangeIsObserved(t *testing.T) {
	h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
	h.session.Set(types.Identity{UserID: "u1"})
	h.session.Set(types.Identity{UserID: "u2"})
	h.fillDraft(t)

	report, err := h.o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u2", *report.UserID)

	h.o.Close()
	h.session.Clear()
	assert.NotNil(t, h.o.currentIdentity())
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		kind  types.OutcomeKind
		err   error
		state VerificationState
	}{
		{"mismatch", types.OutcomeMismatch, ErrDescriptionMismatch, RejectedMismatch},
		{"not eligible", types.OutcomeNotEligible, ErrNotCityIssue, RejectedNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(&types.Outcome{Kind: tt.kind})
			h.session.Set(types.Identity{UserID: "u1"})
			h.fillDraft(t)

			_, err := h.o.Submit(context.Background())
			require.ErrorIs(t, err, tt.err)

			draft := h.o.Draft()
			assert.Equal(t, StepReview, draft.Step)
			assert.Equal(t, tt.state, draft.Verification.State)
			assert.Equal(t, "pothole on main", draft.Description)
			assert.Equal(t, "Main St", draft.Location)
			assert.Equal(t, []byte("jpeg-bytes"), draft.Image)

			assert.Zero(t, h.creator.calls)
			assert.Empty(t, h.notifier.sent)
		})
	}
}

func TestSubmit_Failures(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
		h.uploader.err = types.StorageError(errors.New("bucket not found"))
		h.fillDraft(t)

		_, err := h.o.Submit(context.Background())
		require.ErrorIs(t, err, types.ErrStorage)
		assert.Zero(t, h.verifier.calls)
		assert.Equal(t, StepReview, h.o.Draft().Step)
	})

	t.Run("verify", func(t *testing.T) {
		h := newHarness(nil)
		h.verifier.err = types.UpstreamError("inference call failed", nil)
		h.fillDraft(t)

		_, err := h.o.Submit(context.Background())
		require.ErrorIs(t, err, types.ErrUpstream)
		assert.Zero(t, h.creator.calls)
		assert.Equal(t, StepReview, h.o.Draft().Step)
		assert.Equal(t, Unverified, h.o.Draft().Verification.State)
	})

	t.Run("create", func(t *testing.T) {
		h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
		h.creator.err = types.StorageError(errors.New("connection refused"))
		h.fillDraft(t)

		_, err := h.o.Submit(context.Background())
		require.ErrorIs(t, err, types.ErrStorage)
		assert.Empty(t, h.notifier.sent)

		draft := h.o.Draft()
		assert.Equal(t, StepReview, draft.Step)
		assert.Equal(t, Accepted, draft.Verification.State)
		assert.Equal(t, "pothole on main", draft.Description)
	})

	t.Run("notify does not fail the submission", func(t *testing.T) {
		h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
		h.notifier.err = errors.New("ses throttled")
		h.fillDraft(t)

		report, err := h.o.Submit(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, report.ID)
		assert.Equal(t, StepDone, h.o.Draft().Step)
	})
}

func TestSubmit_NotReady(t *testing.T) {
	h := newHarness(nil)
	require.NoError(t, h.o.AcceptImage([]byte("img"), "image/png", "a.png"))

	_, err := h.o.Submit(context.Background())
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Zero(t, h.uploader.calls)
}

func TestSubmit_SingleInFlight(t *testing.T) {
	h := newHarness(&types.Outcome{Kind: types.OutcomeAccepted, RawText: acceptedReply})
	h.uploader.started = make(chan struct{})
	h.uploader.release = make(chan struct{})
	h.fillDraft(t)

	done := make(chan error, 1)
	go func() {
		_, err := h.o.Submit(context.Background())
		done <- err
	}()

	<-h.uploader.started

	_, err := h.o.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	require.ErrorIs(t, h.o.Reset(), ErrSubmissionInFlight)
	require.ErrorIs(t, h.o.SetDescription("new words here"), ErrSubmissionInFlight)
	assert.Equal(t, StepSubmitting, h.o.Draft().Step)

	close(h.uploader.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.uploader.calls)
	assert.Equal(t, StepDone, h.o.Draft().Step)
}

func TestReset(t *testing.T) {
	h := newHarness(nil)
	h.fillDraft(t)

	require.NoError(t, h.o.Reset())
	assert.Equal(t, Draft{}, h.o.Draft())
}

func TestDetectLocation(t *testing.T) {
	h := newHarness(nil)
	require.NoError(t, h.o.AcceptImage([]byte("img"), "image/png", "a.png"))
	require.NoError(t, h.o.SetDescription("graffiti on wall"))

	loc, err := h.o.DetectLocation(context.Background(), 37.33, -121.88)
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", loc)
	assert.Equal(t, StepReview, h.o.Draft().Step)

	h.o.geocoder = &fakeGeocoder{err: errors.New("timeout")}
	loc, err = h.o.DetectLocation(context.Background(), 37.33, -121.88)
	require.NoError(t, err)
	assert.Equal(t, "37.33,-121.88", loc)
	assert.Equal(t, "37.33,-121.88", h.o.Draft().Location)

	_, err = h.o.DetectLocation(context.Background(), math.NaN(), -121.88)
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "37.33,-121.88", h.o.Draft().Location)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Please select an image file", UserMessage(types.NewValidationError("image", "Please select an image file")))
	assert.Contains(t, UserMessage(ErrDescriptionMismatch), "doesn't match")
	assert.Contains(t, UserMessage(ErrNotCityIssue), "city can handle")
	assert.Equal(t, "There was an error submitting your report. Please try again.", UserMessage(types.UpstreamError("x", nil)))
	assert.Equal(t, "There was an error submitting your report. Please try again.", UserMessage(types.ConfigurationError("missing key")))
}
