package cdragon

import (
	"bytes"
	"fmt"
)

// extractJSONObject returns the first balanced {...} literal following
// marker in src, rewritten as strict JSON. Bundled JavaScript emits bare
// keys and numbers such as .25, both of which are normalized.
func extractJSONObject(src []byte, marker string) ([]byte, error) {
	at := bytes.Index(src, []byte(marker))
	if at < 0 {
		return nil, fmt.Errorf("marker %q not found", marker)
	}
	rest := src[at+len(marker):]
	start := bytes.IndexByte(rest, '{')
	if start < 0 {
		return nil, fmt.Errorf("no object after %q", marker)
	}
	rest = rest[start:]

	depth := 0
	var quote byte
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return normalizeLiteral(rest[:i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated object after %q", marker)
}

// normalizeLiteral quotes bare object keys and adds the leading zero to
// fractional numbers. Double-quoted strings are copied unchanged and
// single-quoted ones are re-quoted.
func normalizeLiteral(obj []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(obj) + len(obj)/4)
	var nesting []byte

	for i := 0; i < len(obj); i++ {
		ch := obj[i]
		inObject := len(nesting) > 0 && nesting[len(nesting)-1] == '{'
		switch {
		case ch == '{' || ch == '[':
			nesting = append(nesting, ch)
			out.WriteByte(ch)
		case ch == '}' || ch == ']':
			if len(nesting) > 0 {
				nesting = nesting[:len(nesting)-1]
			}
			out.WriteByte(ch)
		case ch == '"':
			j := skipString(obj, i, '"')
			out.Write(obj[i:j])
			i = j - 1
		case ch == '\'':
			j := skipString(obj, i, '\'')
			writeSingleQuoted(&out, obj[i:j])
			i = j - 1
		case inObject && isIdentByte(ch) && expectsKey(out.Bytes()):
			j := i
			for j < len(obj) && isIdentByte(obj[j]) {
				j++
			}
			out.WriteByte('"')
			out.Write(obj[i:j])
			out.WriteByte('"')
			i = j - 1
		case ch == '.' && !prevIsDigit(out.Bytes()):
			out.WriteString("0.")
		default:
			out.WriteByte(ch)
		}
	}
	return out.Bytes()
}

func skipString(b []byte, i int, quote byte) int {
	for j := i + 1; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(b)
}

// writeSingleQuoted writes the JS string lit ('...') as a JSON string.
func writeSingleQuoted(out *bytes.Buffer, lit []byte) {
	body := lit[1:]
	if n := len(body); n > 0 && body[n-1] == '\'' {
		body = body[:n-1]
	}
	out.WriteByte('"')
	for i := 0; i < len(body); i++ {
		switch ch := body[i]; {
		case ch == '\\' && i+1 < len(body) && body[i+1] == '\'':
			out.WriteByte('\'')
			i++
		case ch == '\\' && i+1 < len(body):
			out.WriteByte(ch)
			out.WriteByte(body[i+1])
			i++
		case ch == '"':
			out.WriteString(`\"`)
		default:
			out.WriteByte(ch)
		}
	}
	out.WriteByte('"')
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// expectsKey reports whether the last significant byte opens a key slot.
func expectsKey(written []byte) bool {
	for i := len(written) - 1; i >= 0; i-- {
		switch written[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}

func prevIsDigit(written []byte) bool {
	if len(written) == 0 {
		return false
	}
	c := written[len(written)-1]
	return c >= '0' && c <= '9'
}
