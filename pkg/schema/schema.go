// Package schema turns heterogeneous change records into a rectangular
// table: one column per distinct key, one row per record.
package schema

import "sort"

// AllKeys returns every key present in any record, sorted ascending by
// byte order. The result is empty, not nil, when there are no keys.
func AllKeys(records []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			seen[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Normalize projects each record onto fields. A key missing from a record
// becomes nil, the null marker; keys not in fields are dropped. Records are
// not modified.
func Normalize(records []map[string]any, fields []string) [][]any {
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		row := make([]any, len(fields))
		for i, field := range fields {
			if value, ok := record[field]; ok {
				row[i] = value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Unify computes the column set of records and the matching rows.
func Unify(records []map[string]any) ([]string, [][]any) {
	fields := AllKeys(records)
	return fields, Normalize(records, fields)
}
