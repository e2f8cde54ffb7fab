// Package gvariant prints values in the GVariant text format understood by
// g_variant_parse and the gsettings command line tool.
package gvariant

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// SavedChannelsType is the GVariant type of the saved channel list.
const SavedChannelsType = "aa{sv}"

// PrintSavedChannels prints list as an aa{sv} value with type annotations,
// matching g_variant_print(value, TRUE):
//
//	[{'account': <'/org/…/bob0'>, 'channel': <'#chat'>}]
//
// An empty list prints as "@aa{sv} []".
func PrintSavedChannels(list []model.SavedChannel) string {
	if len(list) == 0 {
		return "@" + SavedChannelsType + " []"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('{')
		writeEntry(&b, "account", c.Account)
		b.WriteString(", ")
		writeEntry(&b, "channel", c.Channel)
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.String()
}

func writeEntry(b *strings.Builder, key, value string) {
	b.WriteString(Quote(key))
	b.WriteString(": <")
	b.WriteString(Quote(value))
	b.WriteByte('>')
}

// Quote prints s as a GVariant string literal. Single quotes are used unless
// s contains a single quote and no double quote.
func Quote(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\a':
			b.WriteString(`\a`)
		case r == '\b':
			b.WriteString(`\b`)
		case r == '\f':
			b.WriteString(`\f`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\v':
			b.WriteString(`\v`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
