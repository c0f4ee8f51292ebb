package dbx

import (
	"fmt"
	"strings"
)

// Placeholders renders a comma-separated list of PostgreSQL positional
// parameters for an IN clause, starting at position start:
//
//	Placeholders(2, 3) -> "$2, $3, $4"
func Placeholders(start, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

// Args converts a slice of ids into the []any form ExecContext expects,
// for use together with Placeholders.
func Args(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
