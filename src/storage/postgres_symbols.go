package storage

import (
	"fmt"
	"regexp"
)

// Postgres-only symbol references: an entry "schema.table.field" in the asset
// list expands to the values of that column.

var pgSymbolRegex = regexp.MustCompile(`^(\w+)\.(\w+)\.(\w+)$`)

// SymbolRef points at a column holding symbols.
type SymbolRef struct {
	Schema string
	Table  string
	Field  string
}

// -----------------------------------------------------------------------------

// ParseSymbolRef recognises a schema.table.field reference.
func ParseSymbolRef(sym string) (SymbolRef, bool) {
	matches := pgSymbolRegex.FindStringSubmatch(sym)
	if len(matches) != 4 {
		return SymbolRef{}, false
	}
	return SymbolRef{Schema: matches[1], Table: matches[2], Field: matches[3]}, true
}

// -----------------------------------------------------------------------------

// LoadSymbols returns the stored list with column references expanded.
func (d *PostgresDB) LoadSymbols() ([]string, error) {
	raw, err := d.sqlStore.LoadSymbols()
	if err != nil {
		return nil, err
	}
	return d.ExpandSymbols(raw)
}

// -----------------------------------------------------------------------------

// ExpandSymbols replaces every reference with the symbols it points at and
// keeps plain symbols as they are, preserving order and dropping repeats.
func (d *PostgresDB) ExpandSymbols(rawSymbols []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, sym := range rawSymbols {
		ref, ok := ParseSymbolRef(sym)
		if !ok {
			add(sym)
			continue
		}

		loaded, err := d.GetSymbolsFromTable(ref.Schema, ref.Table, ref.Field)
		if err != nil {
			return out, fmt.Errorf("failed to load symbols from %s: %w", sym, err)
		}
		for _, s := range loaded {
			add(s)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetSymbolsFromTable(schema, table, field string) ([]string, error) {
	// identifiers are \w+ and quoted
	query := fmt.Sprintf(`SELECT "%s" FROM "%s"."%s"`, field, schema, table)

	rows, err := d.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return symbols, nil
}
