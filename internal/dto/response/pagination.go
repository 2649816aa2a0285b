package response

// Page is one window of a listing plus where it sits in the whole.
type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

type PageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// NewPage never serializes data as null.
func NewPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	if data == nil {
		data = make([]T, 0)
	}

	info := PageInfo{Page: page, PerPage: perPage, Total: total}
	if perPage > 0 {
		info.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
		info.HasNext = page < info.TotalPages
	}
	return &Page[T]{Data: data, Pagination: info}
}
