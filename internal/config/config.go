// Package config loads the ambient configuration of the migration tool: an
// optional YAML file, environment overrides and the positional arguments.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/servlist-migrate/internal/files"
	"github.com/John-Robertt/servlist-migrate/internal/logger"
	"github.com/John-Robertt/servlist-migrate/internal/model"
	"github.com/John-Robertt/servlist-migrate/internal/settings"
)

const (
	EnvPrefix     = "SERVLIST_MIGRATE"
	ConfigPathEnv = EnvPrefix + "_CONFIG"

	dryRunAccountsName = "accounts.cfg"
	dryRunSettingsName = "settings.txt"
)

type Config struct {
	// Input overrides the legacy server list location.
	Input string `yaml:"input"`
	// AccountsPath overrides the mission-control accounts.cfg location.
	AccountsPath string `yaml:"accounts_path"`

	Settings SettingsConfig `yaml:"settings" validate:"required"`
	Log      logger.Config  `yaml:"log"`
}

type SettingsConfig struct {
	Backend      string `yaml:"backend" validate:"required,oneof=gsettings bitcask file"`
	Schema       string `yaml:"schema" validate:"required"`
	Key          string `yaml:"key" validate:"required"`
	GSettingsBin string `yaml:"gsettings_bin"`
	BitcaskDir   string `yaml:"bitcask_dir" validate:"required_if=Backend bitcask"`
	File         string `yaml:"file" validate:"required_if=Backend file"`
}

type ConfigError struct {
	AppError model.AppError
	Cause    error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Default returns the configuration used when no file or environment
// override is present.
func Default(p Paths) *Config {
	return &Config{
		Settings: SettingsConfig{
			Backend:      string(settings.BackendGSettings),
			Schema:       settings.DefaultSchema,
			Key:          settings.DefaultKey,
			GSettingsBin: "gsettings",
			BitcaskDir:   p.BitcaskDir(),
		},
		Log: logger.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then the YAML file (when it
// exists), then SERVLIST_MIGRATE_* environment variables. The result is
// validated.
func Load(fsys afero.Fs, p Paths) (*Config, error) {
	cfg := Default(p)
	env := newEnv()

	path := p.ConfigFile()
	explicit := false
	if env.IsSet("config") {
		path = env.GetString("config")
		explicit = true
	}

	exists, err := files.Exists(fsys, path)
	if err != nil {
		return nil, configError("CONFIG_READ_ERROR", "读取配置文件失败", path, err)
	}
	if !exists && explicit {
		return nil, configError("CONFIG_READ_ERROR", "配置文件不存在", path, nil)
	}
	if exists {
		content, err := files.ReadText(fsys, files.KindInput, path)
		if err != nil {
			return nil, configError("CONFIG_READ_ERROR", "读取配置文件失败", path, err)
		}
		if err := yamlDecodeStrict(content, cfg); err != nil {
			return nil, configError("CONFIG_PARSE_ERROR", "配置文件 YAML 解析失败", path, err)
		}
	}

	applyEnv(env, cfg)

	if err := Validate(cfg); err != nil {
		return nil, configError("CONFIG_VALIDATE_ERROR", "配置校验失败", path, err)
	}
	return cfg, nil
}

// Validate checks struct constraints of cfg.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v.Struct(cfg)
}

var envKeys = []string{
	"config",
	"input",
	"accounts_path",
	"settings.backend",
	"settings.schema",
	"settings.key",
	"settings.gsettings_bin",
	"settings.bitcask_dir",
	"settings.file",
	"log.level",
	"log.development",
	"log.file",
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

func applyEnv(v *viper.Viper, cfg *Config) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setString("input", &cfg.Input)
	setString("accounts_path", &cfg.AccountsPath)
	setString("settings.backend", &cfg.Settings.Backend)
	setString("settings.schema", &cfg.Settings.Schema)
	setString("settings.key", &cfg.Settings.Key)
	setString("settings.gsettings_bin", &cfg.Settings.GSettingsBin)
	setString("settings.bitcask_dir", &cfg.Settings.BitcaskDir)
	setString("settings.file", &cfg.Settings.File)
	setString("log.file", &cfg.Log.File)

	if v.IsSet("log.level") {
		cfg.Log.Level = logger.Level(strings.ToLower(v.GetString("log.level")))
	}
	if v.IsSet("log.development") {
		cfg.Log.Development = v.GetBool("log.development")
	}
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		// An empty file is a valid "no overrides" config.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func configError(code, message, path string, cause error) error {
	return &ConfigError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "load_config",
			Path:    path,
		},
		Cause: cause,
	}
}

// Run is a fully resolved migration: where to read, where to write and which
// settings backend receives the channel list.
type Run struct {
	Input        string
	AccountsPath string
	SettingsKey  settings.Key
	Settings     settings.Options

	// DryRun is set when an output directory was given on the command line.
	DryRun bool
}

// Resolve combines cfg with the positional arguments [input [output-dir]].
// An output directory redirects both outputs into it and forces the file
// settings backend.
func Resolve(fsys afero.Fs, p Paths, cfg *Config, args []string) (Run, error) {
	if len(args) > 2 {
		return Run{}, fmt.Errorf("at most 2 arguments are accepted, got %d", len(args))
	}

	r := Run{
		Input:        cfg.Input,
		AccountsPath: cfg.AccountsPath,
		SettingsKey:  settings.Key{Schema: cfg.Settings.Schema, Name: cfg.Settings.Key},
		Settings: settings.Options{
			Backend:      settings.Backend(cfg.Settings.Backend),
			FS:           fsys,
			FilePath:     cfg.Settings.File,
			GSettingsBin: cfg.Settings.GSettingsBin,
			BitcaskDir:   cfg.Settings.BitcaskDir,
		},
	}

	if len(args) >= 1 && args[0] != "" {
		r.Input = args[0]
	}
	if r.Input == "" {
		in, err := firstExisting(fsys, p.InputCandidates())
		if err != nil {
			return Run{}, err
		}
		r.Input = in
	}
	if r.AccountsPath == "" {
		r.AccountsPath = p.AccountsFile()
	}

	if len(args) == 2 {
		dir := args[1]
		r.DryRun = true
		r.AccountsPath = filepath.Join(dir, dryRunAccountsName)
		r.Settings.Backend = settings.BackendFile
		r.Settings.FilePath = filepath.Join(dir, dryRunSettingsName)
	}
	return r, nil
}

// firstExisting returns the first existing path, or the first candidate when
// none exists so the read error names the primary location.
func firstExisting(fsys afero.Fs, candidates []string) (string, error) {
	for _, c := range candidates {
		ok, err := files.Exists(fsys, c)
		if err != nil {
			return "", err
		}
		if ok {
			return c, nil
		}
	}
	return candidates[0], nil
}
