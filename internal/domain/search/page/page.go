// Package page holds the pagination policy for archive listings.
package page

// Page size bounds. MaxSize is a resource ceiling, not a preference.
const (
	DefaultSize = 20
	MaxSize     = 20
)

// Page is a clamped 1-based page request.
type Page struct {
	number int
	size   int
}

// New clamps number to >= 1 and size to [1, MaxSize].
func New(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = 1
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Page{number: number, size: size}
}

// Number returns the 1-based page number.
func (p Page) Number() int { return p.number }

// Size returns the page size.
func (p Page) Size() int { return p.size }

// Skip returns the number of documents before the page.
func (p Page) Skip() int { return (p.number - 1) * p.size }
