package dashboard

import (
	"context"
	"sync"

	"civicsnap/internal/optimistic"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
)

type ReportSource interface {
	Reports(ctx context.Context, opts types.ReportListOptions) (*types.ReportPage, error)
	SetVisibility(ctx context.Context, reportID string, isPublic bool) (*types.Report, error)
}

type Query struct {
	Page       int
	Limit      int
	UserID     string
	Visibility types.Visibility
}

func (q Query) options() types.ReportListOptions {
	return types.ReportListOptions{
		UserID:     q.UserID,
		Visibility: q.Visibility,
		Page:       q.Page,
		Limit:      q.Limit,
	}.Normalize()
}

// Feed is the displayed page of reports. Every Load replaces it with a fresh
// query result.
type Feed struct {
	source ReportSource
	logger *logrus.Logger

	mu    sync.RWMutex
	query Query
	page  *types.ReportPage
}

func NewFeed(source ReportSource, logger *logrus.Logger) *Feed {
	return &Feed{
		source: source,
		logger: logger,
		page:   types.NewReportPage(nil, 0, Query{}.options()),
	}
}

func (f *Feed) Load(ctx context.Context, q Query) (*types.ReportPage, error) {
	opts := q.options()

	page, err := f.source.Reports(ctx, opts)
	if err != nil {
		f.logger.WithError(err).Error("failed to load reports")
		return nil, err
	}

	f.mu.Lock()
	f.query = q
	f.page = page
	f.mu.Unlock()

	return f.Page(), nil
}

// Page returns a copy of the displayed page.
func (f *Feed) Page() *types.ReportPage {
	f.mu.RLock()
	defer f.mu.RUnlock()

	items := make([]*types.Report, 0, len(f.page.Items))
	for _, r := range f.page.Items {
		cp := *r
		items = append(items, &cp)
	}

	out := *f.page
	out.Items = items
	return &out
}

// TogglePublic flips the displayed item first and confirms with the source.
// On failure the item goes back to its previous value.
func (f *Feed) TogglePublic(ctx context.Context, reportID string, isPublic bool) error {
	f.mu.RLock()
	_, found := f.find(reportID)
	f.mu.RUnlock()
	if !found {
		return types.ErrReportNotFound
	}

	var previous bool

	apply := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r, ok := f.find(reportID); ok {
			previous = r.IsPublic
			r.IsPublic = isPublic
		}
	}

	commit := func(ctx context.Context) error {
		updated, err := f.source.SetVisibility(ctx, reportID, isPublic)
		if err != nil {
			return err
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if r, ok := f.find(reportID); ok {
			*r = *updated
		}
		return nil
	}

	revert := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r, ok := f.find(reportID); ok {
			r.IsPublic = previous
		}
	}

	err := optimistic.Apply(ctx, apply, commit, revert)
	if err != nil {
		f.logger.WithError(err).WithField("report_id", reportID).Error("failed to update report visibility")
	}
	return err
}

func (f *Feed) find(reportID string) (*types.Report, bool) {
	for _, r := range f.page.Items {
		if r.ID == reportID {
			return r, true
		}
	}
	return nil, false
}
