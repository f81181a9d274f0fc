package store

import (
	"context"
	"strings"

	"civicsnap/pkg/types"

	sq "github.com/Masterminds/squirrel"
)

// ReportStore is implemented by ReportRepository and MemoryReportRepository.
type ReportStore interface {
	CreateReport(ctx context.Context, in *types.CreateReport) (*types.Report, error)
	Report(ctx context.Context, reportID string) (*types.Report, error)
	Reports(ctx context.Context, opts types.ReportListOptions) (*types.ReportPage, error)
	SetVisibility(ctx context.Context, reportID string, isPublic bool) (*types.Report, error)
	// ClaimNotification marks the report as emailed. It fails with
	// types.ErrAlreadyNotified when the report was claimed before.
	ClaimNotification(ctx context.Context, reportID string) error
	ReleaseNotification(ctx context.Context, reportID string) error
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func nullable(v *string) any {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return strings.TrimSpace(*v)
}

// newReport validates a create request and builds the row to insert. Callers
// assign the ID and creation time.
func newReport(in *types.CreateReport) (*types.Report, error) {
	if in == nil {
		return nil, types.NewValidationError("description", "Missing required fields")
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, types.NewValidationError("description", "description is required")
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, types.NewValidationError("imageUrl", "imageUrl is required")
	}

	report := &types.Report{
		Description: description,
		ImageURL:    imageURL,
	}

	if loc, ok := nullable(in.Location).(string); ok {
		report.Location = &loc
	}

	// is_public only means something for owned reports
	if userID, ok := nullable(in.UserID).(string); ok {
		report.UserID = &userID
		if in.IsPublic != nil {
			report.IsPublic = *in.IsPublic
		}
	}

	return report, nil
}

// visibilityFilter is the WHERE clause for a listing. Without a user only
// public reports are ever visible.
func visibilityFilter(opts types.ReportListOptions) sq.Sqlizer {
	if opts.UserID == "" {
		return sq.Eq{"is_public": true}
	}

	switch opts.Visibility {
	case types.VisibilityPublic:
		return sq.Eq{"user_id": opts.UserID, "is_public": true}
	case types.VisibilityPrivate:
		return sq.Eq{"user_id": opts.UserID, "is_public": false}
	default:
		return sq.Eq{"user_id": opts.UserID}
	}
}
