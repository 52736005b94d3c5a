package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render fills the named placeholders of a message template from args in
// order and returns the message plus any args left over.
//
//	{Name}   value formatted with %v
//	{@Name}  value encoded as JSON
//	{$Name}  value formatted with %v, quoted
//	{{ }}    literal braces
//
// Placeholders without a matching argument are kept verbatim.
func Render(template string, args ...any) (string, []any) {
	var b strings.Builder
	b.Grow(len(template))
	next := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				b.WriteString(template[i:])
				i = len(template)
				continue
			}
			token := template[i+1 : i+1+end]
			if next < len(args) && isPlaceholder(token) {
				b.WriteString(formatArg(token, args[next]))
				next++
			} else {
				b.WriteString(template[i : i+2+end])
			}
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	var rest []any
	if next < len(args) {
		rest = args[next:]
	}
	return b.String(), rest
}

func isPlaceholder(token string) bool {
	token = strings.TrimLeft(token, "@$")
	if token == "" {
		return false
	}
	for _, r := range token {
		if r == '_' || r == '.' || r == ':' || r == ',' || r == '-' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func formatArg(token string, arg any) string {
	switch {
	case strings.HasPrefix(token, "@"):
		b, err := json.Marshal(arg)
		if err != nil {
			return fmt.Sprintf("%v", arg)
		}
		return string(b)
	case strings.HasPrefix(token, "$"):
		return fmt.Sprintf("%q", fmt.Sprint(arg))
	default:
		return fmt.Sprint(arg)
	}
}
