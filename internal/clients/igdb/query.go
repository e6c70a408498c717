package igdb

import (
	"fmt"
	"strings"
)

// Query builds an apicalypse request body:
//
//	fields a,b,c; where x = 1 & y != 0; sort z desc; limit 10; offset 20;
type Query struct {
	fields []string
	where  []string
	search string
	sort   string
	limit  int
	offset int
}

func NewQuery() *Query {
	return &Query{limit: -1, offset: -1}
}

func (q *Query) Fields(fields ...string) *Query {
	q.fields = append(q.fields, fields...)
	return q
}

func (q *Query) Where(cond string) *Query {
	cond = strings.TrimSpace(cond)
	if cond != "" {
		q.where = append(q.where, cond)
	}
	return q
}

func (q *Query) Search(text string) *Query {
	q.search = text
	return q
}

func (q *Query) Sort(field, direction string) *Query {
	q.sort = strings.TrimSpace(field + " " + direction)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) Build() string {
	var b strings.Builder
	if len(q.fields) > 0 {
		fmt.Fprintf(&b, "fields %s;", strings.Join(q.fields, ","))
	}
	if q.search != "" {
		fmt.Fprintf(&b, ` search "%s";`, strings.ReplaceAll(q.search, `"`, `\"`))
	}
	if len(q.where) > 0 {
		fmt.Fprintf(&b, " where %s;", strings.Join(q.where, " & "))
	}
	if q.sort != "" {
		fmt.Fprintf(&b, " sort %s;", q.sort)
	}
	if q.limit >= 0 {
		fmt.Fprintf(&b, " limit %d;", q.limit)
	}
	if q.offset >= 0 {
		fmt.Fprintf(&b, " offset %d;", q.offset)
	}
	return strings.TrimSpace(b.String())
}
