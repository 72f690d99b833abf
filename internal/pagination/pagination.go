// Package pagination slices ordered sequences into fixed-size, 1-based pages.
package pagination

// PageSize is the page size of every paginated view.
const PageSize = 5

// Window is one page of a sequence.
type Window[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns page (1-based) of items. Pages outside the range yield
// an empty window rather than an error.
func Paginate[T any](items []T, pageSize, page int) Window[T] {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	w := Window[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		Total:      len(items),
		TotalPages: TotalPages(len(items), pageSize),
	}
	if page < 1 || page > w.TotalPages {
		return w
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	w.Items = append(w.Items, items[start:end]...)
	w.HasPrev = page > 1
	w.HasNext = page < w.TotalPages
	return w
}

// ClampPage keeps a stored page inside [1, lastPage] after the sequence
// changed length. An empty sequence clamps to page 1.
func ClampPage(page, total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	last := TotalPages(total, pageSize)
	if last == 0 || page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}
