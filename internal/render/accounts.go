package render

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

const accountsHeader = "# Telepathy accounts\n\n"

type AccountsOptions struct {
	// LocalUser is the login name of the user running the migration.
	// param-username is omitted for accounts whose nickname equals it.
	LocalUser string
}

// Accounts renders the mission-control accounts.cfg content for accounts, one
// group per account in input order. Output is deterministic.
func Accounts(accounts []model.Account, opt AccountsOptions) string {
	var b strings.Builder
	b.WriteString(accountsHeader)
	for _, a := range accounts {
		writeAccount(&b, a, opt)
		b.WriteString("\n")
	}
	return b.String()
}

func writeAccount(b *strings.Builder, a model.Account, opt AccountsOptions) {
	b.WriteString("[" + a.AccountID() + "]\n")
	writeKey(b, "manager", model.AccountManager)
	writeKey(b, "protocol", model.AccountProtocol)
	writeKey(b, "DisplayName", a.NetworkName)
	writeKey(b, "Enabled", "true")
	if a.Nickname != opt.LocalUser {
		writeKey(b, "param-username", a.Nickname)
	}
	writeKey(b, "Service", ServiceName(a.NetworkName))
	writeKey(b, "param-account", a.Nickname)
	writeKey(b, "param-server", a.ServerAddress)
	writeKey(b, "param-use-ssl", boolString(a.SecureConnection))
	if a.HasPort {
		writeKey(b, "param-port", a.ServerPort)
	}
}

func writeKey(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// ServiceName derives the mission-control Service value from a network name:
// every rune outside [A-Za-z0-9_] becomes one '_' per UTF-16 code unit, then
// the result is lower-cased.
func ServiceName(networkName string) string {
	var b strings.Builder
	b.Grow(len(networkName))
	for _, r := range networkName {
		if isWordRune(r) {
			b.WriteRune(r)
			continue
		}
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		b.WriteString(strings.Repeat("_", n))
	}
	return cases.Lower(language.Und).String(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
