package channels

import "github.com/John-Robertt/servlist-migrate/internal/model"

// Extract flattens the rooms of accounts into saved channel entries, keeping
// account order and then room order. Accounts without rooms contribute
// nothing.
func Extract(accounts []model.Account) []model.SavedChannel {
	n := 0
	for _, a := range accounts {
		n += len(a.Rooms)
	}
	out := make([]model.SavedChannel, 0, n)
	for _, a := range accounts {
		path := a.ObjectPath()
		for _, room := range a.Rooms {
			out = append(out, model.SavedChannel{Account: path, Channel: room})
		}
	}
	return out
}
