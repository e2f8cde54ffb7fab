package model

// SavedChannel is one entry of the saved channel list: a room to rejoin on a
// given account.
type SavedChannel struct {
	Account string // account object path
	Channel string
}
