package model

import "strconv"

const (
	// AccountManager and AccountProtocol form the mission-control account
	// namespace every migrated account lives in.
	AccountManager  = "idle"
	AccountProtocol = "irc"

	// AccountObjectPathPrefix is the D-Bus object path under which
	// mission-control exposes accounts.
	AccountObjectPathPrefix = "/org/freedesktop/Telepathy/Account/"
)

// Account is one auto-connect network block of a legacy server list.
// It is built once by the parser and never mutated afterwards.
type Account struct {
	// NetworkName falls back to the raw server value when the block has no name.
	NetworkName string

	ServerAddress string
	// ServerPort is only meaningful when HasPort is true.
	ServerPort string
	HasPort    bool

	SecureConnection bool

	Nickname string
	RealName string

	// Rooms is nil when the block has no join list. Sorted, no duplicates.
	Rooms []string

	NickServPassword string
	ServerPassword   string

	// AccountNum disambiguates accounts sharing a nickname (0-based, parse order).
	AccountNum int
}

// AccountID is the mission-control account identifier, e.g. "idle/irc/bob0".
// It is the group label in accounts.cfg and the tail of ObjectPath.
func (a Account) AccountID() string {
	return AccountManager + "/" + AccountProtocol + "/" + a.Nickname + strconv.Itoa(a.AccountNum)
}

// ObjectPath is the account's D-Bus object path as referenced by the saved
// channel list.
func (a Account) ObjectPath() string {
	return AccountObjectPathPrefix + a.AccountID()
}
