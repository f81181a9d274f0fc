package types

// Wire types for the HTTP API.

type ErrorResponse struct {
	Error string `json:"error"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type ReportListResponse struct {
	Items      []*Report  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func NewReportListResponse(page *ReportPage) *ReportListResponse {
	return &ReportListResponse{
		Items: page.Items,
		Pagination: Pagination{
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.PageCount,
		},
	}
}

// Page converts the response back to the repository shape.
func (r *ReportListResponse) Page() *ReportPage {
	items := r.Items
	if items == nil {
		items = make([]*Report, 0)
	}
	return &ReportPage{
		Items:     items,
		Total:     r.Pagination.Total,
		Page:      r.Pagination.Page,
		Limit:     r.Pagination.Limit,
		PageCount: r.Pagination.Pages,
	}
}

type VisibilityUpdate struct {
	IsPublic *bool `json:"is_public"`
}

type VerifyForm struct {
	Description string `form:"description"`
	Location    string `form:"location"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID        string `json:"userId"`
	UserConfirmed bool   `json:"userConfirmed"`
}

type GeocodeResponse struct {
	Location string `json:"location"`
}
