package migrate

import (
	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// lintAccounts warns about nicknames and rooms the new client is likely to
// reject. Nothing is dropped.
func lintAccounts(log *zap.Logger, accounts []model.Account) int {
	warnings := 0
	for _, a := range accounts {
		if !girc.IsValidNick(a.Nickname) {
			log.Warn("nickname is not a valid IRC nick",
				zap.String("account", a.AccountID()),
				zap.String("nick", a.Nickname))
			warnings++
		}
		for _, room := range a.Rooms {
			if !girc.IsValidChannel(room) {
				log.Warn("room is not a valid IRC channel name",
					zap.String("account", a.AccountID()),
					zap.String("channel", room))
				warnings++
			}
		}
	}
	return warnings
}
