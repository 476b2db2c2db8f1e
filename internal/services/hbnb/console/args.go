package console

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
)

type token struct {
	Text string
	// Quoted marks tokens written between quotes; their text is never
	// converted to a number.
	Quoted bool
}

// nextToken reads one whitespace-delimited token from s. Single or double
// quotes group words; a backslash inside quotes makes the next character
// literal.
func nextToken(s string) (token, string, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s == "" {
		return token{}, "", false
	}
	var (
		b       strings.Builder
		quote   rune
		quoted  bool
		escaped bool
	)
	for i, r := range s {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			quoted = true
		case quote == 0 && unicode.IsSpace(r):
			return token{Text: b.String(), Quoted: quoted}, s[i:], true
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteRune('\\')
	}
	return token{Text: b.String(), Quoted: quoted}, "", true
}

// splitCommas splits s on commas outside quotes. Parts keep their quotes
// and escapes so they can be tokenized again.
func splitCommas(s string) []string {
	var (
		out     []string
		start   int
		quote   rune
		escaped bool
	)
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote == 0 && r == ',':
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func splitArgs(s string) []token {
	var out []token
	for {
		tok, rest, ok := nextToken(s)
		if !ok {
			return out
		}
		out = append(out, tok)
		s = rest
	}
}

func tokenTexts(tokens []token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// parseParam decodes a create parameter value: "double_quoted" text with
// underscores read as spaces and \" as a quote, a float when the value has
// a dot, otherwise an integer. Anything else is invalid.
func parseParam(raw string) (any, bool) {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		inner := raw[1 : len(raw)-1]
		if strings.Contains(strings.ReplaceAll(inner, `\"`, ""), `"`) {
			return nil, false
		}
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		return strings.ReplaceAll(inner, "_", " "), true
	}
	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

// parseDict decodes a dictionary literal written with single or double
// quoted keys, e.g. {'name': 'Pool', 'max_guest': 4}.
func parseDict(raw string) (map[string]any, error) {
	doc, err := toJSON(raw)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("dictionary is empty")
	}
	return out, nil
}

// toJSON rewrites single-quoted strings and True/False/None literals so the
// literal can be decoded as JSON.
func toJSON(raw string) ([]byte, error) {
	var (
		b     bytes.Buffer
		quote byte
	)
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if quote != 0 {
			switch {
			case ch == '\\' && i+1 < len(raw):
				next := raw[i+1]
				i++
				if next == '\'' {
					b.WriteByte('\'')
					continue
				}
				b.WriteByte('\\')
				b.WriteByte(next)
			case ch == quote:
				b.WriteByte('"')
				quote = 0
			case ch == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(ch)
			}
			continue
		}
		switch {
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteByte('"')
		case strings.HasPrefix(raw[i:], "True"):
			b.WriteString("true")
			i += len("True") - 1
		case strings.HasPrefix(raw[i:], "False"):
			b.WriteString("false")
			i += len("False") - 1
		case strings.HasPrefix(raw[i:], "None"):
			b.WriteString("null")
			i += len("None") - 1
		default:
			b.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string in %s", raw)
	}
	return b.Bytes(), nil
}
