package placeholder

import "strings"

type tokenKind int

const (
	tokText      tokenKind = iota // verbatim SQL, including quoted text and comments
	tokMarker                     // positional ?
	tokQuestion                   // escaped ?? standing for a literal question mark
	tokNamed                      // :name
	tokNamedList                  // :...name
)

type token struct {
	kind tokenKind
	text string // source text of the token
	name string // parameter name for named tokens
}

// tokenize splits sql into placeholder tokens and verbatim text. String
// literals, quoted identifiers, comments and :: casts are never split.
func tokenize(sql string) []token {
	var (
		toks []token
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			toks = append(toks, token{kind: tokText, text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			end := quotedEnd(sql, i, c)
			text.WriteString(sql[i:end])
			i = end
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			text.WriteString(sql[i : i+end])
			i += end
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql)
			} else {
				end = i + 2 + end + 2
			}
			text.WriteString(sql[i:end])
			i = end
		case c == '?' && strings.HasPrefix(sql[i:], "??"):
			flush()
			toks = append(toks, token{kind: tokQuestion, text: "??"})
			i += 2
		case c == '?':
			flush()
			toks = append(toks, token{kind: tokMarker, text: "?"})
			i++
		case c == ':' && strings.HasPrefix(sql[i:], "::"):
			text.WriteString("::")
			i += 2
		case c == ':':
			kind, start := tokNamed, i+1
			if strings.HasPrefix(sql[start:], "...") {
				kind, start = tokNamedList, start+3
			}
			end := identEnd(sql, start)
			if end == start {
				text.WriteByte(c)
				i++
				continue
			}
			flush()
			toks = append(toks, token{kind: kind, text: sql[i:end], name: sql[start:end]})
			i = end
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	return toks
}

// quotedEnd returns the index just past the quoted run starting at i.
// A doubled quote character is an escape. Unterminated runs extend to the end.
func quotedEnd(sql string, i int, q byte) int {
	for j := i + 1; j < len(sql); j++ {
		if sql[j] != q {
			continue
		}
		if j+1 < len(sql) && sql[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(sql)
}

func identEnd(sql string, start int) int {
	j := start
	for j < len(sql) {
		c := sql[j]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && j > start) {
			break
		}
		j++
	}
	return j
}
