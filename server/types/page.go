package types

// Iterable is anything slice-shaped that can hand out its elements.
type Iterable interface {
	Elements() []any
}

// Order is one sort criterion of a page request.
type Order struct {
	Property   string
	Descending bool
}

// PageRequest selects one page of a listing.
type PageRequest struct {
	Number int
	Size   int
	Sort   []Order
}

// Offset returns the element offset of the requested page.
func (r PageRequest) Offset() int {
	return r.Number * r.Size
}

// Page is one slice of a larger result set together with its position.
// A Page is itself an Iterable; callers that care about page metadata
// must test for the page shape before the generic iterable shape.
type Page struct {
	Items         []any
	Number        int
	Size          int
	TotalElements int64
}

var _ Iterable = (*Page)(nil)

// Elements implements Iterable.
func (p *Page) Elements() []any {
	if p == nil {
		return nil
	}

	return p.Items
}

// TotalPages returns the number of pages needed to cover TotalElements.
func (p *Page) TotalPages() int {
	if p == nil || p.Size <= 0 {
		return 0
	}

	pages := p.TotalElements / int64(p.Size)
	if p.TotalElements%int64(p.Size) != 0 {
		pages++
	}

	return int(pages)
}
