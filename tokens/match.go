package tokens

import "strings"

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// indexToken returns the index of the first occurrence of tok in s at or
// after from that is not followed by an identifier character, or -1.
func indexToken(s, tok string, from int) int {
	for from <= len(s) {
		i := strings.Index(s[from:], tok)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(tok)
		if end == len(s) || !isIdentByte(s[end]) {
			return i
		}
		from = i + 1
	}
	return -1
}

// Contains reports whether query contains tok as a whole token.
func Contains(query, tok string) bool {
	return indexToken(query, tok, 0) >= 0
}

// Replace substitutes every whole-token occurrence of tok in query with
// value. The substituted text is never rescanned.
func Replace(query, tok, value string) string {
	i := indexToken(query, tok, 0)
	if i < 0 {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + len(value))
	last := 0
	for i >= 0 {
		sb.WriteString(query[last:i])
		sb.WriteString(value)
		last = i + len(tok)
		i = indexToken(query, tok, last)
	}
	sb.WriteString(query[last:])
	return sb.String()
}
