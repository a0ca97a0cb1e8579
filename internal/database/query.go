package database

import "strings"

// rebind rewrites the ? markers of a SQLite-style query into the bind
// variables of d, numbering them left to right:
//
//	UPDATE skills SET checked = ? WHERE id = ?
//	UPDATE skills SET checked = $1 WHERE id = $2
//
// A ? inside a single-quoted literal is text and stays as it is.
func rebind(d Dialect, query string) string {
	if d.BindVar(1) == "?" || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			// '' escapes flip twice and leave the state unchanged.
			inLiteral = !inLiteral
		case c == '?' && !inLiteral:
			n++
			b.WriteString(d.BindVar(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
