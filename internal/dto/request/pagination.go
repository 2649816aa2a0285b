package request

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*per_page well inside int range.
	MaxPage = 100000
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1,max=100000"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// Limit is PerPage clamped to [1, MaxPerPage], defaulting when unset.
func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return DefaultPerPage
	case p.PerPage > MaxPerPage:
		return MaxPerPage
	}
	return p.PerPage
}

// Offset is never negative, whatever Page holds.
func (p PaginatedRequest) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	return (page - 1) * p.Limit()
}
