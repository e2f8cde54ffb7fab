package servlist

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

const (
	separator = '='

	// Bits of the F= value.
	FlagUseSSL      = 4
	FlagAutoConnect = 8
)

// Keys understood by the parser. Everything else is ignored.
const (
	KeyServer         byte = 'S'
	KeyName           byte = 'N'
	KeyFlags          byte = 'F'
	KeyNick           byte = 'I'
	KeyRealName       byte = 'R'
	KeyJoin           byte = 'J'
	KeyNickServ       byte = 'B'
	KeyServerPassword byte = 'P'
)

type Options struct {
	// DefaultNick is used for blocks without an I= line. XChat falls back to
	// the global nick in that case, which defaults to the login name.
	DefaultNick string

	// Log receives one line per parsed account. Nil means no logging.
	Log *zap.Logger
}

// Section is the raw key/value view of one blank-line delimited block.
type Section map[byte]string

// Lookup returns the value of key and whether the block had it.
func (s Section) Lookup(key byte) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// ParseSections splits content into blocks and extracts the K=value lines of
// each one. Lines shorter than 3 bytes or without '=' as their second byte
// are skipped; the first occurrence of a key wins.
func ParseSections(content string) []Section {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	out := make([]Section, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, parseSection(block))
	}
	return out
}

func parseSection(block string) Section {
	keys := make(Section)
	for _, line := range strings.Split(block, "\n") {
		if len(line) < 3 || line[1] != separator {
			continue
		}
		key := line[0]
		if _, seen := keys[key]; seen {
			continue
		}
		keys[key] = line[2:]
	}
	return keys
}

// Parse turns a legacy server list into the auto-connect accounts it
// describes, in file order. A block is skipped when it has no S= line, when
// its F= value lacks the auto-connect bit, or when it has no I= line and
// opt.DefaultNick is empty. Parse never fails.
func Parse(content string, opt Options) []model.Account {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}

	nickUsage := make(map[string]int)
	var out []model.Account
	for _, sec := range ParseSections(content) {
		acc, ok := accountFromSection(sec, opt.DefaultNick, log)
		if !ok {
			continue
		}
		acc.AccountNum = nickUsage[acc.Nickname]
		nickUsage[acc.Nickname]++

		log.Info("parsed auto-connect server", zap.String("network", acc.NetworkName))
		out = append(out, acc)
	}
	return out
}

func accountFromSection(sec Section, defaultNick string, log *zap.Logger) (model.Account, bool) {
	server, ok := sec.Lookup(KeyServer)
	if !ok || server == "" {
		return model.Account{}, false
	}

	name := server
	if n, ok := sec.Lookup(KeyName); ok {
		name = n
	}

	flags, hasFlags := parseFlags(sec[KeyFlags])
	if !flagMatches(flags, hasFlags, FlagAutoConnect) {
		log.Debug("server is not auto-connect, ignoring", zap.String("network", name))
		return model.Account{}, false
	}

	nick, ok := sec.Lookup(KeyNick)
	if !ok {
		nick = defaultNick
	}
	if nick == "" {
		log.Warn("server has no nickname, ignoring", zap.String("network", name))
		return model.Account{}, false
	}

	address, port, hasPort, forceSSL := splitServer(server)

	acc := model.Account{
		NetworkName:      name,
		ServerAddress:    address,
		ServerPort:       port,
		HasPort:          hasPort,
		SecureConnection: forceSSL || flagMatches(flags, hasFlags, FlagUseSSL),
		Nickname:         nick,
		RealName:         sec[KeyRealName],
		NickServPassword: sec[KeyNickServ],
		ServerPassword:   sec[KeyServerPassword],
	}
	if join := sec[KeyJoin]; join != "" {
		acc.Rooms = uniq(strings.Split(join, ","))
	}
	return acc, true
}

// parseFlags reports ok=false for a missing or non-numeric value, which must
// never match any bit.
func parseFlags(raw string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func flagMatches(flags int64, ok bool, bit int64) bool {
	if !ok {
		return false
	}
	return flags&bit != 0
}

// splitServer splits "host[/[+]port]". A '+' before the port marks SSL.
// Anything after a second '/' is ignored.
func splitServer(server string) (address, port string, hasPort, ssl bool) {
	address, rest, found := strings.Cut(server, "/")
	if !found {
		return server, "", false, false
	}
	portSpec, _, _ := strings.Cut(rest, "/")
	if strings.HasPrefix(portSpec, "+") {
		ssl = true
		portSpec = portSpec[1:]
	}
	// "host/" and "host/+" carry no port; writing an empty param-port would
	// break the account.
	if portSpec == "" {
		return address, "", false, ssl
	}
	return address, portSpec, true, ssl
}

// uniq sorts values and drops adjacent duplicates. The resulting order is
// lexicographic, not the order of the join list.
func uniq(values []string) []string {
	sort.Strings(values)
	out := values[:0]
	for _, v := range values {
		if len(out) > 0 && v == out[len(out)-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
