package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews?page=4&per_page=25", nil)
	p := FromRequest(req)

	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 25, p.PerPage)
	assert.Equal(t, 75, p.Offset)
}

func TestFromRequest_InvalidValues(t *testing.T) {
	for _, q := range []string{"page=0", "page=-2", "page=abc", "per_page=0", "per_page=9999", "per_page=x"} {
		req := httptest.NewRequest(http.MethodGet, "/reviews?"+q, nil)
		p := FromRequest(req)
		assert.Equal(t, 1, p.Page, q)
		assert.Equal(t, 20, p.PerPage, q)
	}
}

func TestNewResult(t *testing.T) {
	params := Params{Page: 2, PerPage: 10, Offset: 10}
	res := NewResult([]string{"a", "b"}, 25, params)

	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestNewResult_LastPage(t *testing.T) {
	params := Params{Page: 3, PerPage: 10, Offset: 20}
	res := NewResult([]string{"a"}, 21, params)

	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
}
