package gateway

import (
	"net/url"
	"strconv"
	"strings"
)

// tableQuery builds the PostgREST query string for one table request.
type tableQuery struct {
	columns []string
	order   string
	filters [][2]string
}

func newTableQuery() *tableQuery {
	return &tableQuery{}
}

// Select restricts the returned columns.
func (q *tableQuery) Select(columns ...string) *tableQuery {
	q.columns = append(q.columns, columns...)
	return q
}

// OrderBy sorts by column.
func (q *tableQuery) OrderBy(column string, ascending bool) *tableQuery {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = column + "." + dir
	return q
}

// EqInt adds a column=eq.value filter.
func (q *tableQuery) EqInt(column string, value int64) *tableQuery {
	q.filters = append(q.filters, [2]string{column, "eq." + strconv.FormatInt(value, 10)})
	return q
}

// Values returns the query as url.Values.
func (q *tableQuery) Values() url.Values {
	v := url.Values{}
	if len(q.columns) > 0 {
		v.Set("select", strings.Join(q.columns, ","))
	}
	if q.order != "" {
		v.Set("order", q.order)
	}
	for _, f := range q.filters {
		v.Add(f[0], f[1])
	}
	return v
}
