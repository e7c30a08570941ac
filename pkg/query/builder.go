package query

import (
	"fmt"
	"strconv"
	"strings"
)

// SortField orders results by a projected field.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields reads "field,-other" where a leading "-" sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition renders one WHERE term, calling bind for each argument to get
// its placeholder.
type condition func(bind func(arg any) string) string

// Builder accumulates conditions and ordering over a Projection. Fields
// that are not projected are ignored, so request input never reaches the
// SQL text.
type Builder struct {
	projection  *Projection
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

func NewBuilder(projection *Projection, defaultSort ...SortField) *Builder {
	return &Builder{projection: projection, defaultSort: defaultSort}
}

// OrderByFields replaces the default ordering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals matches field exactly. Nil or empty values add nothing.
func (b *Builder) WhereEquals(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(field, func(col string, bind func(any) string) string {
		return col + " = " + bind(*value)
	})
}

// WhereContains matches field case-insensitively by substring.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(field, func(col string, bind func(any) string) string {
		return col + " ILIKE " + bind("%"+*value+"%")
	})
}

// WherePresent selects rows where field is set (true) or null (false).
func (b *Builder) WherePresent(field string, present *bool) *Builder {
	if present == nil {
		return b
	}
	return b.where(field, func(col string, _ func(any) string) string {
		if *present {
			return col + " IS NOT NULL"
		}
		return col + " IS NULL"
	})
}

// WhereSearch matches search against any of fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" {
		return b
	}

	var cols []string
	for _, f := range fields {
		if col, ok := b.projection.Column(f); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	b.conditions = append(b.conditions, func(bind func(any) string) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + bind(pattern)
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
	return b
}

// Build returns the ordered SELECT.
func (b *Builder) Build() (string, []any) {
	where, args := b.render()
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() + where + b.orderBy(), args
}

// BuildCount returns a COUNT(*) over the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.render()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns the ordered SELECT for a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	q, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", q, pageSize, (page-1)*pageSize), args
}

// BuildSingle selects the row whose field equals id, ignoring other
// conditions.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	col, ok := b.projection.Column(field)
	if !ok {
		col = field
	}
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() + " WHERE " + col + " = $1", []any{id}
}

func (b *Builder) where(field string, term func(col string, bind func(any) string) string) *Builder {
	col, ok := b.projection.Column(field)
	if !ok {
		return b
	}
	b.conditions = append(b.conditions, func(bind func(any) string) string {
		return term(col, bind)
	})
	return b
}

func (b *Builder) render() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var args []any
	bind := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	terms := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		terms[i] = c(bind)
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var terms []string
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		if f.Descending {
			col += " DESC"
		} else {
			col += " ASC"
		}
		terms = append(terms, col)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
