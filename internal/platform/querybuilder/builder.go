// Package querybuilder renders the small subset of PostgreSQL the repositories
// need, numbering placeholders in the order values are bound.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// binder collects arguments and hands out the matching $n placeholder.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// expand replaces each ? in expr with a bound placeholder. Extra ? are left as is.
func (b *binder) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	for _, r := range expr {
		if r == '?' && len(values) > 0 {
			out.WriteString(b.bind(values[0]))
			values = values[1:]
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Condition is one predicate of a WHERE clause; predicates are joined with AND.
type Condition func(b *binder) string

func compare(column, op string, value any) Condition {
	return func(b *binder) string {
		return column + " " + op + " " + b.bind(value)
	}
}

func Eq(column string, value any) Condition {
	return compare(column, "=", value)
}

func Lt(column string, value any) Condition {
	return compare(column, "<", value)
}

func Gte(column string, value any) Condition {
	return compare(column, ">=", value)
}

func Lte(column string, value any) Condition {
	return compare(column, "<=", value)
}

// Any renders "column = ANY($n)"; array must be a driver value such as pq.Array(ids).
func Any(column string, array any) Condition {
	return func(b *binder) string {
		return column + " = ANY(" + b.bind(array) + ")"
	}
}

// In expands to one placeholder per value; an empty list matches nothing.
func In(column string, values []any) Condition {
	return func(b *binder) string {
		if len(values) == 0 {
			return "1=0"
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = b.bind(v)
		}
		return column + " IN (" + strings.Join(parts, ", ") + ")"
	}
}

func IsNull(column string) Condition {
	return func(*binder) string { return column + " IS NULL" }
}

func IsNotNull(column string) Condition {
	return func(*binder) string { return column + " IS NOT NULL" }
}

// Expr is raw SQL with ? placeholders for args.
func Expr(expr string, args ...any) Condition {
	return func(b *binder) string { return b.expand(expr, args) }
}

func writeWhere(buf *strings.Builder, b *binder, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(c(b))
	}
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, parts...)
	return s
}

// Limit of zero or less means no limit.
func (s *SelectBuilder) Limit(limit int) *SelectBuilder {
	s.limit = limit
	return s
}

func (s *SelectBuilder) ForUpdate() *SelectBuilder {
	s.forUpdate = true
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(s.columns) == 0:
		return "", nil, fmt.Errorf("select: no columns")
	case strings.TrimSpace(s.table) == "":
		return "", nil, fmt.Errorf("select: no table")
	}

	var (
		buf strings.Builder
		b   binder
	)
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(s.columns, ", "), s.table)
	writeWhere(&buf, &b, s.where)
	if len(s.orderBy) > 0 {
		buf.WriteString(" ORDER BY " + strings.Join(s.orderBy, ", "))
	}
	if s.limit > 0 {
		buf.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	if s.forUpdate {
		buf.WriteString(" FOR UPDATE")
	}
	return buf.String(), b.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append([]string(nil), columns...)
	return i
}

// Values appends one row; call it again for multi-row inserts.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.rows = append(i.rows, append([]any(nil), values...))
	return i
}

// Suffix is appended verbatim, e.g. "RETURNING id" or an ON CONFLICT clause.
func (i *InsertBuilder) Suffix(sql string) *InsertBuilder {
	i.suffix = strings.TrimSpace(sql)
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(i.table) == "":
		return "", nil, fmt.Errorf("insert: no table")
	case len(i.columns) == 0:
		return "", nil, fmt.Errorf("insert into %s: no columns", i.table)
	case len(i.rows) == 0:
		return "", nil, fmt.Errorf("insert into %s: no rows", i.table)
	}

	var (
		buf strings.Builder
		b   binder
	)
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES ", i.table, strings.Join(i.columns, ", "))
	for n, row := range i.rows {
		if len(row) != len(i.columns) {
			return "", nil, fmt.Errorf("insert into %s: row %d has %d values for %d columns", i.table, n, len(row), len(i.columns))
		}
		placeholders := make([]string, len(row))
		for c, v := range row {
			placeholders[c] = b.bind(v)
		}
		if n > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	if i.suffix != "" {
		buf.WriteString(" " + i.suffix)
	}
	return buf.String(), b.args, nil
}

type assignment struct {
	column string
	render func(b *binder) string
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, render: func(b *binder) string { return b.bind(value) }})
	return u
}

// SetExpr assigns raw SQL such as NOW() or "counter + ?".
func (u *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, render: func(b *binder) string { return b.expand(expr, args) }})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	u.suffix = strings.TrimSpace(sql)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(u.table) == "":
		return "", nil, fmt.Errorf("update: no table")
	case len(u.sets) == 0:
		return "", nil, fmt.Errorf("update %s: nothing to set", u.table)
	}

	var (
		buf strings.Builder
		b   binder
	)
	sets := make([]string, len(u.sets))
	for i, s := range u.sets {
		sets[i] = s.column + " = " + s.render(&b)
	}
	fmt.Fprintf(&buf, "UPDATE %s SET %s", u.table, strings.Join(sets, ", "))
	writeWhere(&buf, &b, u.where)
	if u.suffix != "" {
		buf.WriteString(" " + u.suffix)
	}
	return buf.String(), b.args, nil
}
