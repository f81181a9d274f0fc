package submission

import (
	"context"
	"errors"
	"strings"
	"sync"

	"civicsnap/internal/geocode"
	"civicsnap/internal/notify"
	"civicsnap/internal/session"
	"civicsnap/internal/storage"
	"civicsnap/internal/verify"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
)

var (
	ErrSubmissionInFlight  = errors.New("a submission is already in progress")
	ErrDescriptionMismatch = errors.New("description does not match the image")
	ErrNotCityIssue        = errors.New("not a city issue")
)

type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, originalName string) (*types.UploadResult, error)
}

type Verifier interface {
	Verify(ctx context.Context, description, location string, image []byte, mimeType string) (*types.Outcome, error)
}

type ReportCreator interface {
	CreateReport(ctx context.Context, in *types.CreateReport) (*types.Report, error)
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

type Deps struct {
	Uploader Uploader
	Verifier Verifier
	Reports  ReportCreator
	Notifier notify.Notifier
	Geocoder Geocoder
	Session  *session.Session
	Logger   *logrus.Logger

	MaxImageBytes int64
}

// Orchestrator walks one draft through capture, description, location and
// review, then runs the upload, verify, create and notify pipeline.
type Orchestrator struct {
	mu    sync.Mutex
	draft Draft
	busy  bool

	idMu     sync.RWMutex
	identity *types.Identity

	uploader Uploader
	verifier Verifier
	reports  ReportCreator
	notifier notify.Notifier
	geocoder Geocoder
	logger   *logrus.Logger
	maxBytes int64

	unsubscribe func()
}

func New(deps Deps) *Orchestrator {
	maxBytes := deps.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxUploadBytes
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	o := &Orchestrator{
		uploader: deps.Uploader,
		verifier: deps.Verifier,
		reports:  deps.Reports,
		notifier: deps.Notifier,
		geocoder: deps.Geocoder,
		logger:   logger,
		maxBytes: maxBytes,
	}

	if deps.Session != nil {
		o.identity = deps.Session.Current()
		o.unsubscribe = deps.Session.Subscribe(o.setIdentity)
	}

	return o
}

// Close stops following session changes.
func (o *Orchestrator) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
}

func (o *Orchestrator) setIdentity(id *types.Identity) {
	o.idMu.Lock()
	o.identity = id
	o.idMu.Unlock()
}

func (o *Orchestrator) currentIdentity() *types.Identity {
	o.idMu.RLock()
	defer o.idMu.RUnlock()
	return o.identity
}

// Draft returns a copy of the current draft.
func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft.clone()
}

func (o *Orchestrator) AcceptImage(data []byte, mimeType, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.draft.Step == StepSubmitting {
		return ErrSubmissionInFlight
	}

	if len(data) == 0 {
		return types.NewValidationError("image", "Please select an image file")
	}

	if int64(len(data)) > o.maxBytes {
		return types.NewValidationError("image", "Image size too large. Maximum size is %dMB.", o.maxBytes>>20)
	}

	if o.draft.Step == StepDone {
		o.draft = Draft{}
	}

	o.draft.Image = append([]byte(nil), data...)
	o.draft.MimeType = storage.EffectiveMimeType(data, mimeType)
	o.draft.ImageName = name
	o.draft.Verification = Verification{}

	if o.draft.Step == StepCapture {
		o.draft.Step = StepDescribe
	}

	return nil
}

func (o *Orchestrator) SetDescription(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(StepDescribe); err != nil {
		return err
	}

	if len(strings.Fields(text)) < 2 {
		return types.NewValidationError("description", "Please describe the issue in at least two words")
	}

	o.draft.Description = strings.TrimSpace(text)
	o.draft.Verification = Verification{}

	if o.draft.Step == StepDescribe {
		o.draft.Step = StepLocate
	}

	return nil
}

func (o *Orchestrator) SetLocation(location string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(StepLocate); err != nil {
		return err
	}

	location = strings.TrimSpace(location)
	if location == "" {
		return types.NewValidationError("location", "Please enter or detect a location")
	}

	o.draft.Location = location
	o.draft.Verification = Verification{}

	if o.draft.Step == StepLocate {
		o.draft.Step = StepReview
	}

	return nil
}

// DetectLocation resolves coordinates to an address and sets it as the
// location. When the address lookup fails the coordinates are used as-is.
func (o *Orchestrator) DetectLocation(ctx context.Context, lat, lng float64) (string, error) {
	if err := geocode.CheckCoordinates(lat, lng); err != nil {
		return "", err
	}

	location := geocode.Coordinates(lat, lng)

	if o.geocoder != nil {
		addr, err := o.geocoder.Reverse(ctx, lat, lng)
		if err != nil {
			o.logger.WithError(err).Warn("reverse geocode failed, using coordinates")
		} else {
			location = addr
		}
	}

	if err := o.SetLocation(location); err != nil {
		return "", err
	}

	return location, nil
}

func (o *Orchestrator) SetPublic(isPublic bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.draft.Step == StepSubmitting {
		return ErrSubmissionInFlight
	}

	o.draft.IsPublic = isPublic
	return nil
}

// Reset discards the draft and returns to capture.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return ErrSubmissionInFlight
	}

	o.draft = Draft{}
	return nil
}

// editable reports whether a field owned by step can be changed now. Fields
// of earlier steps stay editable until submission.
func (o *Orchestrator) editable(step Step) error {
	switch {
	case o.draft.Step == StepSubmitting:
		return ErrSubmissionInFlight
	case o.draft.Step == StepDone:
		return types.NewValidationError("step", "The report was already submitted")
	case o.draft.Step < step:
		return types.NewValidationError("step", "Please complete the previous step first")
	}
	return nil
}

// Submit runs the pipeline for the reviewed draft. Any failure or rejection
// leaves the draft intact in Review.
func (o *Orchestrator) Submit(ctx context.Context) (*types.Report, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if o.draft.Step != StepReview {
		o.mu.Unlock()
		return nil, types.NewValidationError("step", "Please complete the report before submitting")
	}

	o.busy = true
	o.draft.Step = StepSubmitting
	draft := o.draft.clone()
	o.mu.Unlock()

	identity := o.currentIdentity()

	report, verification, err := o.run(ctx, draft, identity)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false

	if err != nil {
		o.draft.Step = StepReview
		o.draft.Verification = verification
		return nil, err
	}

	o.draft = Draft{Step: StepDone}
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, draft Draft, identity *types.Identity) (*types.Report, Verification, error) {
	entry := o.logger.WithField("step", "upload")

	upload, err := o.uploader.Upload(ctx, draft.Image, draft.MimeType, draft.ImageName)
	if err != nil {
		entry.WithError(err).Error("submission failed")
		return nil, Verification{}, err
	}

	entry = o.logger.WithField("step", "verify")

	outcome, err := o.verifier.Verify(ctx, draft.Description, draft.Location, draft.Image, draft.MimeType)
	if err != nil {
		entry.WithError(err).Error("submission failed")
		return nil, Verification{}, err
	}

	switch outcome.Kind {
	case types.OutcomeMismatch:
		entry.Info("submission rejected: description mismatch")
		return nil, Verification{State: RejectedMismatch}, ErrDescriptionMismatch
	case types.OutcomeNotEligible:
		entry.Info("submission rejected: not a city issue")
		return nil, Verification{State: RejectedNotEligible}, ErrNotCityIssue
	}

	extracted := verify.Extract(outcome.RawText)
	verification := Verification{
		State:       Accepted,
		Description: firstNonEmpty(extracted.Description, draft.Description),
		Location:    firstNonEmpty(extracted.Location, draft.Location),
	}

	in := &types.CreateReport{
		Description: verification.Description,
		ImageURL:    upload.PublicURL,
	}
	if verification.Location != "" {
		in.Location = &verification.Location
	}
	if identity != nil && identity.UserID != "" {
		userID := identity.UserID
		isPublic := draft.IsPublic
		in.UserID = &userID
		in.IsPublic = &isPublic
	}

	report, err := o.reports.CreateReport(ctx, in)
	if err != nil {
		// the uploaded object is left in place
		o.logger.WithError(err).WithField("step", "create").WithField("path", upload.Path).Error("submission failed")
		return nil, verification, err
	}

	if o.notifier != nil {
		note := notify.Notification{Report: report}
		if identity != nil {
			note.ReporterEmail = identity.Email
		}
		if err := o.notifier.Notify(ctx, note); err != nil {
			o.logger.WithError(err).WithField("report_id", report.ID).Warn("report saved but notification failed")
		}
	}

	o.logger.WithField("report_id", report.ID).Info("report submitted")

	return report, verification, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// UserMessage turns a pipeline error into text for the person submitting.
func UserMessage(err error) string {
	var verr *types.ValidationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrDescriptionMismatch):
		return "The description doesn't match with the image. Please provide an accurate description of the issue."
	case errors.Is(err, ErrNotCityIssue):
		return "This doesn't look like an issue the city can handle. Please report municipal problems only."
	case errors.Is(err, ErrSubmissionInFlight):
		return "Your report is already being submitted."
	case errors.Is(err, types.ErrUnauthorized):
		return "Please log in to submit a report."
	}

	return "There was an error submitting your report. Please try again."
}
