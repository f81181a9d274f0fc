package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"civicsnap/internal/notify"
	"civicsnap/internal/utils"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
)

func (s *Service) handleGetReports(w http.ResponseWriter, r *http.Request) {
	var opts types.ReportListOptions
	if err := decoder.Decode(&opts, r.URL.Query()); err != nil {
		s.writeError(w, types.NewValidationError("query", "invalid query parameters"))
		return
	}

	visibility, err := types.ParseVisibility(string(opts.Visibility))
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Visibility = visibility
	opts.UserID = strings.TrimSpace(opts.UserID)

	// other people's reports are only listed when public
	caller := s.identityFromContext(r.Context())
	if opts.UserID != "" && (caller == nil || caller.UserID != opts.UserID) {
		opts.Visibility = types.VisibilityPublic
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := s.reports.Reports(ctx, opts.Normalize())
	if err != nil {
		s.logger.WithError(err).Error("failed to list reports")
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, types.NewReportListResponse(page))
}

func (s *Service) handlePostReport(w http.ResponseWriter, r *http.Request) {
	var in types.CreateReport
	if err := s.readJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}

	caller := s.identityFromContext(r.Context())
	requested := strings.TrimSpace(utils.PtrString(in.UserID))

	switch {
	case requested == "" && caller != nil:
		in.UserID = utils.StringPtr(caller.UserID)
	case requested != "" && (caller == nil || caller.UserID != requested):
		s.writeError(w, types.ErrForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, err := s.reports.CreateReport(ctx, &in)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"user_id":   utils.PtrString(report.UserID),
	}).Info("report created")

	s.writeJSON(w, http.StatusCreated, report)
}

func (s *Service) handlePatchReport(w http.ResponseWriter, r *http.Request) {
	reportID := strings.TrimSpace(r.PathValue("id"))

	var in types.VisibilityUpdate
	if err := s.readJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	if in.IsPublic == nil {
		s.writeError(w, types.NewValidationError("is_public", "is_public is required"))
		return
	}

	caller := s.identityFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := s.reports.Report(ctx, reportID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !existing.OwnedBy(caller.UserID) {
		s.logger.WithFields(logrus.Fields{
			"report_id": reportID,
			"user_id":   caller.UserID,
		}).Warn("visibility change by non-owner rejected")
		s.writeError(w, types.ErrForbidden)
		return
	}

	report, err := s.reports.SetVisibility(ctx, reportID, *in.IsPublic)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Service) handlePostReportNotify(w http.ResponseWriter, r *http.Request) {
	reportID := strings.TrimSpace(r.PathValue("id"))

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	report, err := s.reports.Report(ctx, reportID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// owned reports are only sent by their owner; anonymous ones by anybody
	caller := s.identityFromContext(r.Context())
	note := notify.Notification{Report: report}
	if report.UserID != nil {
		if caller == nil {
			s.writeError(w, types.ErrUnauthorized)
			return
		}
		if !report.OwnedBy(caller.UserID) {
			s.writeError(w, types.ErrForbidden)
			return
		}
		note.ReporterEmail = caller.Email
	}

	if err := s.reports.ClaimNotification(ctx, reportID); err != nil {
		s.writeError(w, err)
		return
	}

	// best effort: the report is already stored
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.WithError(err).WithField("report_id", reportID).Error("failed to send report email")
		if err := s.reports.ReleaseNotification(ctx, reportID); err != nil {
			s.logger.WithError(err).WithField("report_id", reportID).Error("failed to release report notification")
		}
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
