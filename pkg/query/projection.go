// Package query builds parameterized SELECT statements from a projection of
// logical field names onto qualified columns.
package query

import (
	"strings"
)

type column struct {
	field     string
	name      string
	qualified string
}

// ProjectionMap maps logical field names to alias-qualified columns in
// projection order. Filters use the logical names; sort input may use either
// the logical name or the bare column name.
type ProjectionMap struct {
	schema   string
	table    string
	alias    string
	current  string
	joins    []string
	columns  []column
	index    map[string]int
	byColumn map[string]int
}

// NewProjectionMap creates a ProjectionMap for schema.table under alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:   schema,
		table:    table,
		alias:    alias,
		current:  alias,
		index:    make(map[string]int),
		byColumn: make(map[string]int),
	}
}

// Project appends column under the logical name field, qualified with the
// most recently joined alias. Projecting a field twice replaces its column
// but keeps its original position.
func (p *ProjectionMap) Project(col, field string) *ProjectionMap {
	qualified := p.current + "." + col
	if i, ok := p.index[field]; ok {
		delete(p.byColumn, p.columns[i].name)
		p.columns[i].name = col
		p.columns[i].qualified = qualified
		p.byColumn[col] = i
		return p
	}
	p.index[field] = len(p.columns)
	p.byColumn[col] = len(p.columns)
	p.columns = append(p.columns, column{field: field, name: col, qualified: qualified})
	return p
}

// Join adds a joined table. kind is the join keyword, e.g. "LEFT JOIN".
// Subsequent Project calls qualify columns with alias.
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, kind+" "+schema+"."+table+" "+alias+" ON "+on)
	p.current = alias
	return p
}

// Alias returns the base table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns "schema.table alias" for the base table.
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// From returns the FROM clause body: the base table followed by any joins.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.Table()}, p.joins...), " ")
}

// Lookup resolves a logical field or bare column name to its qualified
// column and reports whether it is projected.
func (p *ProjectionMap) Lookup(field string) (string, bool) {
	i, ok := p.index[field]
	if !ok {
		if i, ok = p.byColumn[field]; !ok {
			return "", false
		}
	}
	return p.columns[i].qualified, true
}

// Column returns the qualified column for field, or field itself when it is
// not projected. Callers pass trusted names only; sort input goes through Lookup.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.Lookup(field); ok {
		return col
	}
	return field
}

// Columns returns the projected columns as a select list.
func (p *ProjectionMap) Columns() string {
	list := make([]string, len(p.columns))
	for i, c := range p.columns {
		list[i] = c.qualified
	}
	return strings.Join(list, ", ")
}
