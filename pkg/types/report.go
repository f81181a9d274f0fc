package types

import (
	"math"
	"time"
)

type Visibility string

const (
	VisibilityAny     Visibility = ""
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityAny, VisibilityPublic, VisibilityPrivate:
		return Visibility(s), nil
	}
	return VisibilityAny, &ValidationError{Field: "visibility", Message: "visibility must be public or private"}
}

type Report struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"user_id"`
	Description string    `db:"description" json:"description"`
	Location    *string   `db:"location" json:"location"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// OwnedBy reports whether userID is the report's owner. Anonymous reports
// have no owner.
func (r *Report) OwnedBy(userID string) bool {
	return r.UserID != nil && userID != "" && *r.UserID == userID
}

type CreateReport struct {
	Description string  `json:"description"`
	Location    *string `json:"location,omitempty"`
	ImageURL    string  `json:"imageUrl"`
	UserID      *string `json:"userId,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

type ReportListOptions struct {
	UserID     string     `form:"userId"`
	Visibility Visibility `form:"visibility"`
	Page       int        `form:"page"`
	Limit      int        `form:"limit"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps page and limit into their accepted ranges. Page is capped
// so that Offset never overflows.
func (o ReportListOptions) Normalize() ReportListOptions {
	if o.Limit < 1 {
		o.Limit = DefaultPageLimit
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if maxPage := math.MaxInt / o.Limit; o.Page > maxPage {
		o.Page = maxPage
	}
	return o
}

// Offset is the zero-based row offset of the first item on the page.
func (o ReportListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

type ReportPage struct {
	Items     []*Report
	Total     int
	Page      int
	Limit     int
	PageCount int
}

func NewReportPage(items []*Report, total int, opts ReportListOptions) *ReportPage {
	if items == nil {
		items = make([]*Report, 0)
	}
	return &ReportPage{
		Items:     items,
		Total:     total,
		Page:      opts.Page,
		Limit:     opts.Limit,
		PageCount: PageCount(total, opts.Limit),
	}
}

func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

type UploadResult struct {
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}
