package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters.
// pageNumber and page_size are accepted as aliases for older clients.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(firstQuery(c, strconv.Itoa(DefaultPage), "page", "pageNumber"))
	limit, _ := strconv.Atoi(firstQuery(c, strconv.Itoa(DefaultLimit), "limit", "page_size"))
	return New(page, limit)
}

// New clamps raw values into a valid Params
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func firstQuery(c *gin.Context, fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := c.GetQuery(key); ok && v != "" {
			return v
		}
	}
	return fallback
}
