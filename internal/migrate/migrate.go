// Package migrate runs one migration: existence check, input read, parse,
// accounts.cfg write and saved channel list write, in that order. A failure
// at any step stops the run; earlier side effects are not rolled back.
package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/John-Robertt/servlist-migrate/internal/channels"
	"github.com/John-Robertt/servlist-migrate/internal/files"
	"github.com/John-Robertt/servlist-migrate/internal/render"
	"github.com/John-Robertt/servlist-migrate/internal/servlist"
	"github.com/John-Robertt/servlist-migrate/internal/settings"
)

type Runner struct {
	FS       afero.Fs
	Settings settings.Writer
	Log      *zap.Logger

	// Out receives the user-facing progress lines. Nil discards them.
	Out io.Writer

	// LocalUser is the login name of the invoking user. It suppresses
	// param-username for matching nicknames and is the nick of blocks
	// without one.
	LocalUser string
}

type Plan struct {
	Input        string
	AccountsPath string
	SettingsKey  settings.Key
}

type Result struct {
	Accounts int
	Channels int
	Warnings int
}

func (r *Runner) Run(ctx context.Context, plan Plan) (*Result, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	exists, err := files.Exists(r.FS, plan.AccountsPath)
	if err != nil {
		return nil, newError(PreconditionFailure, CodePrecheckFailed, "无法检查输出文件是否存在", "precheck", plan.AccountsPath, err)
	}
	if exists {
		return nil, newError(PreconditionFailure, CodeOutputExists, "输出文件已存在，已中止", "precheck", plan.AccountsPath, nil)
	}

	content, err := files.ReadText(r.FS, files.KindInput, plan.Input)
	if err != nil {
		return nil, newError(InputReadFailure, CodeInputReadError, "读取 XChat 服务器列表失败", "read_input", plan.Input, err)
	}

	accounts := servlist.Parse(content, servlist.Options{DefaultNick: r.LocalUser, Log: log})
	log.Info("parsed servers", zap.Int("count", len(accounts)))
	if r.Out != nil {
		fmt.Fprintf(r.Out, "Parsed %d servers\n", len(accounts))
	}

	res := &Result{Accounts: len(accounts)}
	res.Warnings = lintAccounts(log, accounts)

	text := render.Accounts(accounts, render.AccountsOptions{LocalUser: r.LocalUser})
	if err := files.WriteText(r.FS, files.KindAccounts, plan.AccountsPath, text); err != nil {
		return nil, newError(OutputWriteFailure, CodeAccountsWriteError, "写入 Telepathy 配置失败", "write_accounts", plan.AccountsPath, err)
	}
	log.Info("wrote accounts", zap.String("path", plan.AccountsPath))

	list := channels.Extract(accounts)
	res.Channels = len(list)
	if err := r.Settings.WriteSavedChannels(ctx, plan.SettingsKey, list); err != nil {
		return nil, newError(OutputWriteFailure, CodeSettingsWriteError, "写入 saved-channel-list 设置失败", "write_settings", plan.SettingsKey.String(), err)
	}
	log.Info("saved channel list",
		zap.Stringer("key", plan.SettingsKey),
		zap.Int("channels", len(list)))

	return res, nil
}
