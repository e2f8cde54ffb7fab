package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/servlist-migrate/internal/config"
	"github.com/John-Robertt/servlist-migrate/internal/files"
	"github.com/John-Robertt/servlist-migrate/internal/logger"
	"github.com/John-Robertt/servlist-migrate/internal/migrate"
	"github.com/John-Robertt/servlist-migrate/internal/model"
	"github.com/John-Robertt/servlist-migrate/internal/settings"
)

// env is everything run needs from the outside world.
type env struct {
	FS        afero.Fs
	Paths     func() (config.Paths, error)
	LocalUser func() string
	NewLogger func(logger.Config) (*zap.Logger, error)
	// NewSettings defaults to settings.New.
	NewSettings func(settings.Options) (settings.Writer, error)
	Stdout      io.Writer
	Stderr      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		FS:          files.OS(),
		Paths:       config.DetectPaths,
		LocalUser:   localUser,
		NewLogger:   logger.New,
		NewSettings: settings.New,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e env) int {
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetOut(e.Stdout)
	cmd.SetErr(e.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var le *loggedError
		if !errors.As(err, &le) {
			fmt.Fprintf(e.Stderr, "servlist-migrate: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "servlist-migrate [input] [output-dir]",
		Short: "把 XChat 的自动连接服务器迁移到 Telepathy 账户和 Polari 频道列表",
		Long: `读取 XChat 的 servlist_.conf，把标记为自动连接的服务器写入
mission-control 的 accounts.cfg，并把要加入的频道写入 Polari 的
saved-channel-list 设置。

指定 output-dir 时两个输出都写入该目录（accounts.cfg 与 settings.txt），
不会改动真实的账户文件或桌面设置。`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateCmd(cmd.Context(), cmd.OutOrStdout(), e, args)
		},
	}
}

func migrateCmd(ctx context.Context, stdout io.Writer, e env, args []string) error {
	start := time.Now()

	paths, err := e.Paths()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	cfg, err := config.Load(e.FS, paths)
	if err != nil {
		return err
	}
	log, err := e.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()))

	plan, err := config.Resolve(e.FS, paths, cfg, args)
	if err != nil {
		return err
	}
	newSettings := e.NewSettings
	if newSettings == nil {
		newSettings = settings.New
	}
	writer, err := newSettings(plan.Settings)
	if err != nil {
		return fmt.Errorf("creating settings writer: %w", err)
	}

	fmt.Fprintf(stdout, "Processing %s to %s\n", plan.Input, plan.AccountsPath)
	log.Info("starting migration",
		zap.String("input", plan.Input),
		zap.String("accounts", plan.AccountsPath),
		zap.String("settings_backend", string(plan.Settings.Backend)),
		zap.Bool("dry_run", plan.DryRun))

	runner := &migrate.Runner{
		FS:        e.FS,
		Settings:  writer,
		Log:       log,
		Out:       stdout,
		LocalUser: e.LocalUser(),
	}
	res, err := runner.Run(ctx, migrate.Plan{
		Input:        plan.Input,
		AccountsPath: plan.AccountsPath,
		SettingsKey:  plan.SettingsKey,
	})
	if err != nil {
		logFailure(log, err)
		return &loggedError{err: err}
	}

	log.Info("migration finished",
		zap.Int("accounts", res.Accounts),
		zap.Int("channels", res.Channels),
		zap.Int("warnings", res.Warnings),
		zap.String("elapsed", durafmt.Parse(time.Since(start)).LimitFirstN(2).String()))
	return nil
}

// loggedError marks a failure already reported through the logger.
type loggedError struct{ err error }

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

func logFailure(log *zap.Logger, err error) {
	fields := []zap.Field{zap.Stringer("kind", migrate.KindOf(err))}
	var me *migrate.Error
	if errors.As(err, &me) {
		fields = append(fields, appErrorFields(me.AppError)...)
		if me.Cause != nil {
			fields = append(fields, zap.NamedError("cause", me.Cause))
		}
	} else {
		fields = append(fields, zap.Error(err))
	}
	log.Error("migration failed", fields...)
}

func appErrorFields(e model.AppError) []zap.Field {
	fields := []zap.Field{
		zap.String("code", e.Code),
		zap.String("stage", e.Stage),
	}
	if e.Path != "" {
		fields = append(fields, zap.String("path", e.Path))
	}
	return fields
}

func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
