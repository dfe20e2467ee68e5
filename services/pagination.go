package services

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 20
	// MaxPage keeps (page-1)*per_page from overflowing.
	MaxPage = math.MaxInt32
)

type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest parses raw query values. Missing or malformed values fall
// back to the defaults, page is clamped to [1, MaxPage] and per_page to
// [1, MaxPerPage].
func NewPageRequest(page, perPage string) PageRequest {
	p, err := strconv.Atoi(page)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(page, "-"):
		p = MaxPage
	case err != nil || p < 1:
		p = 1
	case p > MaxPage:
		p = MaxPage
	}
	pp, err := strconv.Atoi(perPage)
	switch {
	case err != nil:
		pp = DefaultPerPage
	case pp < 1:
		pp = 1
	case pp > MaxPerPage:
		pp = MaxPerPage
	}
	return PageRequest{Page: p, PerPage: pp}
}

func (p PageRequest) offset() int { return (p.Page - 1) * p.PerPage }

func (p PageRequest) apply(q *gorm.DB) *gorm.DB {
	return q.Offset(p.offset()).Limit(p.PerPage)
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func newPageMeta(p PageRequest, total int64) PageMeta {
	last := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	return PageMeta{CurrentPage: p.Page, PerPage: p.PerPage, Total: total, LastPage: last}
}
