package dbx

import "strings"

// LikePattern builds a substring ILIKE pattern, escaping LIKE wildcards in
// the user's query.
func LikePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(query) + "%"
}
