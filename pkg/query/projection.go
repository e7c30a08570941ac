// Package query builds parameterized PostgreSQL SELECT statements from a
// projection of view fields onto table columns.
package query

import "strings"

// Projection maps view field names onto qualified columns of one table.
// Field order is the SELECT column order.
type Projection struct {
	from    string
	alias   string
	fields  []string
	columns map[string]string
}

// NewProjection creates a Projection over schema.table with the given alias.
func NewProjection(schema, table, alias string) *Projection {
	return &Projection{
		from:    schema + "." + table + " " + alias,
		alias:   alias,
		columns: map[string]string{},
	}
}

// Project maps column to field.
func (p *Projection) Project(column, field string) *Projection {
	if _, ok := p.columns[field]; !ok {
		p.fields = append(p.fields, field)
	}
	p.columns[field] = p.alias + "." + column
	return p
}

// From returns the FROM clause target.
func (p *Projection) From() string {
	return p.from
}

// Column returns the qualified column for field.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

// Columns returns the SELECT list.
func (p *Projection) Columns() string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = p.columns[f]
	}
	return strings.Join(cols, ", ")
}
