package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// newPage wraps results in the paginated envelope with absolute links.
func newPage[T any](c *gin.Context, page types.PageRequest, count int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	out := types.Page[T]{Count: count, Results: results}
	if page.HasNext(count) {
		next := pageURL(c, page.Page+1)
		out.Next = &next
	}
	if page.Page > 1 {
		prev := pageURL(c, page.Page-1)
		out.Previous = &prev
	}
	return out
}

// pageURL is the current request URL with the page parameter replaced.
// The first page drops the parameter.
func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
