package types

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// RecipeFilter narrows the recipe list. Tag slugs match any.
type RecipeFilter struct {
	AuthorID         *uint
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the page to >= 1 and the size to [1, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// HasNext reports whether a page follows this one given the total count.
func (p PageRequest) HasNext(count int64) bool {
	n := p.Normalize()
	return int64(n.Page*n.Limit) < count
}
