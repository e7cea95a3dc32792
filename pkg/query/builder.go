package query

import (
	"fmt"
	"reflect"
	"strings"
)

type condition struct {
	clause string
	args   []any
}

// SortField is one ORDER BY term over a logical field name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses "field,-other" into sort fields; "-" marks descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Builder assembles a SELECT with numbered placeholders. Conditions on fields the
// projection does not know are an error reported by the Build methods.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
	err         error
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// OrderByFields sets the sort order, overriding the defaults. Unknown fields are skipped.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col, ok := b.column(field)
	if !ok {
		return b
	}
	if v := reflect.ValueOf(value); v.Kind() == reflect.Pointer {
		value = v.Elem().Interface()
	}
	b.conditions = append(b.conditions, condition{
		clause: col + " = $%d",
		args:   []any{value},
	})
	return b
}

// WhereSearch adds a case-insensitive OR match across fields. No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	clauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for _, field := range fields {
		col, ok := b.column(field)
		if !ok {
			return b
		}
		clauses = append(clauses, col+" ILIKE $%d")
		args = append(args, pattern)
	}

	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// Build returns a SELECT with the current conditions and ordering.
func (b *Builder) Build() (string, []any, error) {
	where, args := b.buildWhere()
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s",
		b.projection.Columns(), b.projection.From(), where, b.buildOrderBy())
	return sql, args, b.err
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any, error) {
	where, args := b.buildWhere()
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where)
	return sql, args, b.err
}

// BuildPage returns a SELECT with ordering, LIMIT, and OFFSET for a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any, error) {
	sql, args, err := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize), args, err
}

// BuildSingle returns a SELECT for the record whose field equals id.
func (b *Builder) BuildSingle(field string, id any) (string, []any, error) {
	col, ok := b.column(field)
	if !ok {
		return "", nil, b.err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(), b.projection.From(), col)
	return sql, []any{id}, nil
}

func (b *Builder) column(field string) (string, bool) {
	col, ok := b.projection.Column(field)
	if !ok && b.err == nil {
		b.err = fmt.Errorf("unknown query field %q", field)
	}
	return col, ok
}

func (b *Builder) buildOrderBy() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	var args []any

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			args = append(args, arg)
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
