package pagination

const (
	// DefaultPageLimit is the page size for offset listings.
	DefaultPageLimit = 20
)

// Page describes an offset page requested by a client. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to 1..MaxLimit (default DefaultPageLimit).
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset of a normalized page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// TotalPages returns how many pages of limit rows cover total.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Result is the envelope returned by offset listings.
type Result[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewResult builds a Result for a normalized page.
func NewResult[T any](items []T, page Page, total int64) Result[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: TotalPages(total, page.Limit),
	}
}
