package store

import (
	"civicsnap/internal/utils"
	"civicsnap/pkg/types"
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportTableName = "civicsnap.reports"

var reportColumns = utils.StructTagValues(types.Report{})

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Report(ctx context.Context, reportID string) (*types.Report, error) {

	query, args, err := psql().Select(reportColumns...).From(reportTableName).
		Where(sq.Eq{"id": reportID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report query: %w", err)
	}

	var report = new(types.Report)
	err = pgxscan.Get(ctx, r.pool, report, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrReportNotFound
		}
		return nil, types.StorageError(utils.WrapError(err, "failed to fetch report"))
	}

	return report, nil
}

func (r *ReportRepository) Reports(ctx context.Context, opts types.ReportListOptions) (*types.ReportPage, error) {

	opts = opts.Normalize()
	where := visibilityFilter(opts)

	countQuery, countArgs, err := psql().Select("count(*)").From(reportTableName).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report count query: %w", err)
	}

	var total int
	err = pgxscan.Get(ctx, r.pool, &total, countQuery, countArgs...)
	if err != nil {
		return nil, types.StorageError(utils.WrapError(err, "failed to count reports"))
	}

	if opts.Offset() >= total {
		return types.NewReportPage(nil, total, opts), nil
	}

	query, args, err := listQuery(opts).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report list query: %w", err)
	}

	var reports = make([]*types.Report, 0, opts.Limit)
	err = pgxscan.Select(ctx, r.pool, &reports, query, args...)
	if err != nil {
		return nil, types.StorageError(utils.WrapError(err, "failed to fetch reports"))
	}

	return types.NewReportPage(reports, total, opts), nil
}

func listQuery(opts types.ReportListOptions) sq.SelectBuilder {
	return psql().Select(reportColumns...).From(reportTableName).
		Where(visibilityFilter(opts)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset()))
}

func (r *ReportRepository) CreateReport(ctx context.Context, in *types.CreateReport) (*types.Report, error) {

	report, err := newReport(in)
	if err != nil {
		return nil, err
	}

	report.ID = utils.NanoID()
	report.CreatedAt = time.Now().UTC()

	query, args, err := psql().Insert(reportTableName).SetMap(utils.StructToMap(report)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate insert report query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, types.StorageError(utils.WrapError(err, "failed to create report"))
	}

	return report, nil
}

func (r *ReportRepository) SetVisibility(ctx context.Context, reportID string, isPublic bool) (*types.Report, error) {

	query, args, err := psql().Update(reportTableName).
		Set("is_public", isPublic).
		Where(sq.Eq{"id": reportID}).
		Suffix("RETURNING " + strings.Join(reportColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update visibility query for report %s: %w", reportID, err)
	}

	var report = new(types.Report)
	err = pgxscan.Get(ctx, r.pool, report, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrReportNotFound
		}
		return nil, types.StorageError(utils.WrapError(err, "failed to update report visibility"))
	}

	return report, nil
}

func (r *ReportRepository) ClaimNotification(ctx context.Context, reportID string) error {

	query, args, err := psql().Update(reportTableName).
		Set("notified_at", sq.Expr("now()")).
		Where(sq.Eq{"id": reportID, "notified_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate claim notification query for report %s: %w", reportID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return types.StorageError(utils.WrapError(err, "failed to claim report notification"))
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.Report(ctx, reportID); err != nil {
			return err
		}
		return types.ErrAlreadyNotified
	}

	return nil
}

func (r *ReportRepository) ReleaseNotification(ctx context.Context, reportID string) error {

	query, args, err := psql().Update(reportTableName).
		Set("notified_at", nil).
		Where(sq.Eq{"id": reportID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate release notification query for report %s: %w", reportID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return types.StorageError(utils.WrapError(err, "failed to release report notification"))
	}

	return nil
}
