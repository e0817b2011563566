package config

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ParseParams parses description parameters written as KEY=VALUE pairs
// separated by spaces. A value can be single or double quoted to contain
// spaces, a backslash escapes the quote character inside quotes.
//
//	MaxPartition=16 Name='tagger reg' Msg="a \"b\""
func ParseParams(in string) (map[string]string, error) {
	r := map[string]string{}
	for _, kv := range splitQuoted(in) {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			return nil, errors.Errorf("invalid parameter %q, expected KEY=VALUE", kv)
		}
		r[kv[:i]] = kv[i+1:]
	}
	return r, nil
}

// splitQuoted is like strings.Fields but keeps spaces inside quotes.
func splitQuoted(in string) []string {
	type stateEnum int
	const (
		inSpace stateEnum = iota
		inField
		inQuote
		inQuoteEscaped
	)
	state := inSpace
	var quote rune
	r := []string{}
	var buf bytes.Buffer

	for _, ch := range in {
		switch state {
		case inSpace, inField:
			switch {
			case ch == '\'' || ch == '"':
				quote = ch
				state = inQuote
			case unicode.IsSpace(ch):
				if state == inField {
					r = append(r, buf.String())
					buf.Reset()
				}
				state = inSpace
			default:
				buf.WriteRune(ch)
				state = inField
			}
		case inQuote:
			switch ch {
			case quote:
				state = inField
			case '\\':
				state = inQuoteEscaped
			default:
				buf.WriteRune(ch)
			}
		case inQuoteEscaped:
			if ch != quote && ch != '\\' {
				buf.WriteRune('\\')
			}
			buf.WriteRune(ch)
			state = inQuote
		}
	}

	if state != inSpace {
		r = append(r, buf.String())
	}
	return r
}
