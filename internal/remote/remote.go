// Package remote contains clients for the hosted collaborator services: the
// relational data service, object storage, the identity provider, and the
// realtime change feed.
package remote

import (
	"context"
	"net/url"
	"strings"

	"campusnet/internal/session"
)

// SelectOptions shape a read against one table.
type SelectOptions struct {
	// Columns is the projection, including embedded relations, e.g.
	// "*, author:profiles(*), comments(*, author:profiles(*))".
	Columns string
	Filter  Filter
	OrderBy string
	Desc    bool
	// Single asks for exactly one row decoded as an object.
	Single bool
}

// DataService is the per-table CRUD contract of the relational data service.
// dest, when non-nil, receives the decoded response rows.
type DataService interface {
	Select(ctx context.Context, table string, opts SelectOptions, dest any) error
	Count(ctx context.Context, table string, filter Filter) (int, error)
	Insert(ctx context.Context, table string, row any, returning string, dest any) error
	Update(ctx context.Context, table string, filter Filter, patch any, returning string, dest any) error
	Delete(ctx context.Context, table string, filter Filter) error
}

// ObjectStorage uploads media objects and issues public URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
}

// AuthAPI is the identity provider contract. Failures carry human-readable
// messages.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password, name string) (*session.Session, error)
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignOut(ctx context.Context) error
}

// Cond is a single filter condition in PostgREST operator form.
type Cond struct {
	Column string
	Op     string
	Value  string
}

// Filter is an ordered conjunction of conditions, with optional OR-of-ilike
// groups for search.
type Filter struct {
	Conds    []Cond
	OrIlikes []OrIlike
}

// OrIlike matches when any listed column case-insensitively contains the
// query.
type OrIlike struct {
	Columns []string
	Query   string
}

// Eq appends an equality condition.
func (f Filter) Eq(column, value string) Filter {
	f.Conds = append(f.Conds, Cond{Column: column, Op: "eq", Value: value})
	return f
}

// Match appends equality conditions for every pair, in key order given.
func (f Filter) Match(pairs ...[2]string) Filter {
	for _, p := range pairs {
		f = f.Eq(p[0], p[1])
	}
	return f
}

// SearchAny appends an OR group matching the query against any column.
func (f Filter) SearchAny(query string, columns ...string) Filter {
	f.OrIlikes = append(f.OrIlikes, OrIlike{Columns: columns, Query: query})
	return f
}

// Where starts an empty filter.
func Where() Filter {
	return Filter{}
}

// Encode writes the filter into query parameters.
func (f Filter) Encode(q url.Values) {
	for _, c := range f.Conds {
		q.Add(c.Column, c.Op+"."+c.Value)
	}
	for _, or := range f.OrIlikes {
		parts := make([]string, 0, len(or.Columns))
		for _, col := range or.Columns {
			parts = append(parts, col+".ilike.*"+or.Query+"*")
		}
		q.Add("or", "("+strings.Join(parts, ",")+")")
	}
}
