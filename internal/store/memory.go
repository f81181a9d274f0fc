package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicsnap/internal/utils"
	"civicsnap/pkg/types"
)

// MemoryReportRepository keeps reports in process memory. It follows the
// same listing and visibility rules as ReportRepository and backs
// `serve --in-memory`.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports  map[string]*types.Report
	notified map[string]bool
	now      func() time.Time
}

func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		reports:  make(map[string]*types.Report),
		notified: make(map[string]bool),
		now:      time.Now,
	}
}

func (m *MemoryReportRepository) CreateReport(_ context.Context, in *types.CreateReport) (*types.Report, error) {
	report, err := newReport(in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	report.ID = utils.NanoID()
	report.CreatedAt = m.now().UTC()
	m.reports[report.ID] = report

	return copyReport(report), nil
}

func (m *MemoryReportRepository) Report(_ context.Context, reportID string) (*types.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[reportID]
	if !ok {
		return nil, types.ErrReportNotFound
	}

	return copyReport(report), nil
}

func (m *MemoryReportRepository) Reports(_ context.Context, opts types.ReportListOptions) (*types.ReportPage, error) {
	opts = opts.Normalize()

	m.mu.RLock()
	matched := make([]*types.Report, 0, len(m.reports))
	for _, report := range m.reports {
		if visible(report, opts) {
			matched = append(matched, copyReport(report))
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if opts.Offset() >= total {
		return types.NewReportPage(nil, total, opts), nil
	}

	start := opts.Offset()
	end := min(start+opts.Limit, total)

	return types.NewReportPage(matched[start:end], total, opts), nil
}

func (m *MemoryReportRepository) SetVisibility(_ context.Context, reportID string, isPublic bool) (*types.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[reportID]
	if !ok {
		return nil, types.ErrReportNotFound
	}

	report.IsPublic = isPublic

	return copyReport(report), nil
}

func (m *MemoryReportRepository) ClaimNotification(_ context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reports[reportID]; !ok {
		return types.ErrReportNotFound
	}
	if m.notified[reportID] {
		return types.ErrAlreadyNotified
	}

	m.notified[reportID] = true
	return nil
}

func (m *MemoryReportRepository) ReleaseNotification(_ context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.notified, reportID)
	return nil
}

// visible mirrors visibilityFilter.
func visible(report *types.Report, opts types.ReportListOptions) bool {
	if opts.UserID == "" {
		return report.IsPublic
	}

	if !report.OwnedBy(opts.UserID) {
		return false
	}

	switch opts.Visibility {
	case types.VisibilityPublic:
		return report.IsPublic
	case types.VisibilityPrivate:
		return !report.IsPublic
	default:
		return true
	}
}

func copyReport(r *types.Report) *types.Report {
	out := *r
	if r.UserID != nil {
		out.UserID = utils.StringPtr(*r.UserID)
	}
	if r.Location != nil {
		out.Location = utils.StringPtr(*r.Location)
	}
	return &out
}
