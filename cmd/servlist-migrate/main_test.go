package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/John-Robertt/servlist-migrate/internal/config"
	"github.com/John-Robertt/servlist-migrate/internal/logger"
	"github.com/John-Robertt/servlist-migrate/internal/model"
	"github.com/John-Robertt/servlist-migrate/internal/settings"
)

const sampleServlist = "v=xchat-gnome 2.8\n\nN=Libera\nI=bob\nF=8\nJ=#chat,#dev\nS=irc.libera.chat\n\nN=Idle\nF=0\nS=irc.idle.net\n"

var testPaths = config.Paths{
	Home:       "/home/bob",
	DataHome:   "/home/bob/.local/share",
	ConfigHome: "/home/bob/.config",
}

type fakeWriter struct {
	calls int
	key   settings.Key
	list  []model.SavedChannel
}

func (w *fakeWriter) WriteSavedChannels(ctx context.Context, key settings.Key, list []model.SavedChannel) error {
	w.calls++
	w.key = key
	w.list = list
	return nil
}

type harness struct {
	fs     afero.Fs
	stdout bytes.Buffer
	stderr bytes.Buffer
	logs   *observer.ObservedLogs
	writer *fakeWriter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, k := range []string{"CONFIG", "INPUT", "ACCOUNTS_PATH", "SETTINGS_BACKEND", "SETTINGS_FILE"} {
		t.Setenv(config.EnvPrefix+"_"+k, "")
	}
	return &harness{fs: afero.NewMemMapFs()}
}

// env wires h into run. With fake set, settings writes go to h.writer
// instead of the configured backend.
func (h *harness) env(fake bool) env {
	core, logs := observer.New(zap.DebugLevel)
	h.logs = logs
	e := env{
		FS:        h.fs,
		Paths:     func() (config.Paths, error) { return testPaths, nil },
		LocalUser: func() string { return "robert" },
		NewLogger: func(logger.Config) (*zap.Logger, error) { return zap.New(core), nil },
		Stdout:    &h.stdout,
		Stderr:    &h.stderr,
	}
	if fake {
		h.writer = &fakeWriter{}
		e.NewSettings = func(settings.Options) (settings.Writer, error) { return h.writer, nil }
	}
	return e
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	if err := afero.WriteFile(h.fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_DryRunWritesIntoOutputDir(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/tmp/servlist_.conf", sampleServlist)

	code := run(context.Background(), []string{"/tmp/servlist_.conf", "/tmp/out"}, h.env(false))
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}

	wantOut := "Processing /tmp/servlist_.conf to /tmp/out/accounts.cfg\nParsed 1 servers\n"
	if h.stdout.String() != wantOut {
		t.Fatalf("stdout=%q, want %q", h.stdout.String(), wantOut)
	}

	accounts, err := afero.ReadFile(h.fs, "/tmp/out/accounts.cfg")
	if err != nil {
		t.Fatalf("accounts.cfg: %v", err)
	}
	if !strings.Contains(string(accounts), "[idle/irc/bob0]\n") || !strings.Contains(string(accounts), "param-username=bob\n") {
		t.Fatalf("accounts.cfg:\n%s", accounts)
	}

	list, err := afero.ReadFile(h.fs, "/tmp/out/settings.txt")
	if err != nil {
		t.Fatalf("settings.txt: %v", err)
	}
	if !strings.Contains(string(list), "'channel': <'#chat'>") || !strings.Contains(string(list), "'channel': <'#dev'>") {
		t.Fatalf("settings.txt=%s", list)
	}

	if ok, _ := afero.Exists(h.fs, testPaths.AccountsFile()); ok {
		t.Fatalf("dry run must not touch the real accounts file")
	}
}

func TestRun_DefaultLocations(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/home/bob/.xchat2/servlist_.conf", sampleServlist)

	code := run(context.Background(), nil, h.env(true))
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, h.stderr.String())
	}

	if ok, _ := afero.Exists(h.fs, "/home/bob/.local/share/telepathy/mission-control/accounts.cfg"); !ok {
		t.Fatalf("accounts.cfg not written to the mission-control directory")
	}
	if h.writer.calls != 1 || h.writer.key != settings.DefaultSavedChannelsKey() || len(h.writer.list) != 2 {
		t.Fatalf("settings calls=%d key=%+v list=%v", h.writer.calls, h.writer.key, h.writer.list)
	}
	if !strings.HasPrefix(h.stdout.String(), "Processing /home/bob/.xchat2/servlist_.conf to ") {
		t.Fatalf("stdout=%q", h.stdout.String())
	}
	if h.logs.FilterMessage("migration finished").Len() != 1 {
		t.Fatalf("missing completion log")
	}
}

func TestRun_DestinationExists(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/tmp/servlist_.conf", sampleServlist)
	h.write(t, "/tmp/out/accounts.cfg", "keep me")

	code := run(context.Background(), []string{"/tmp/servlist_.conf", "/tmp/out"}, h.env(false))
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	if h.stderr.Len() != 0 {
		t.Fatalf("failure reported on stderr as well as the log: %q", h.stderr.String())
	}

	failed := h.logs.FilterMessage("migration failed").All()
	if len(failed) != 1 {
		t.Fatalf("failure logged %d times, want 1", len(failed))
	}
	if got := failed[0].ContextMap()["code"]; got != "OUTPUT_EXISTS" {
		t.Fatalf("logged code=%v", got)
	}

	if ok, _ := afero.Exists(h.fs, "/tmp/out/settings.txt"); ok {
		t.Fatalf("settings must not be written when the destination exists")
	}
	data, _ := afero.ReadFile(h.fs, "/tmp/out/accounts.cfg")
	if string(data) != "keep me" {
		t.Fatalf("accounts.cfg was modified: %q", data)
	}
}

func TestRun_MissingInput(t *testing.T) {
	h := newHarness(t)

	code := run(context.Background(), []string{"/nope/servlist_.conf", "/tmp/out"}, h.env(false))
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	failed := h.logs.FilterMessage("migration failed").All()
	if len(failed) != 1 || failed[0].ContextMap()["code"] != "INPUT_READ_ERROR" {
		t.Fatalf("failure logs=%v", failed)
	}
	if h.stderr.Len() != 0 {
		t.Fatalf("stderr=%q, want empty", h.stderr.String())
	}
	if ok, _ := afero.Exists(h.fs, "/tmp/out/accounts.cfg"); ok {
		t.Fatalf("accounts.cfg should not be written")
	}
}

func TestRun_CountShownWhenAccountsWriteFails(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/tmp/servlist_.conf", sampleServlist)
	e := h.env(false)
	e.FS = afero.NewReadOnlyFs(h.fs)

	code := run(context.Background(), []string{"/tmp/servlist_.conf", "/tmp/out"}, e)
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	wantOut := "Processing /tmp/servlist_.conf to /tmp/out/accounts.cfg\nParsed 1 servers\n"
	if h.stdout.String() != wantOut {
		t.Fatalf("stdout=%q, want %q", h.stdout.String(), wantOut)
	}
	failed := h.logs.FilterMessage("migration failed").All()
	if len(failed) != 1 || failed[0].ContextMap()["code"] != "ACCOUNTS_WRITE_ERROR" {
		t.Fatalf("failure logs=%v", failed)
	}
}

func TestRun_TooManyArgs(t *testing.T) {
	h := newHarness(t)

	code := run(context.Background(), []string{"a", "b", "c"}, h.env(true))
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	if h.stdout.Len() != 0 {
		t.Fatalf("stdout=%q, want empty", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "accepts at most 2 arg") {
		t.Fatalf("stderr=%q", h.stderr.String())
	}
}

func TestRun_InvalidConfigFile(t *testing.T) {
	h := newHarness(t)
	h.write(t, testPaths.ConfigFile(), "settings:\n  backend: dconf\n")
	h.write(t, "/home/bob/.xchat-gnome/servlist_.conf", sampleServlist)

	code := run(context.Background(), nil, h.env(true))
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	if !strings.Contains(h.stderr.String(), "CONFIG_VALIDATE_ERROR") {
		t.Fatalf("stderr=%q", h.stderr.String())
	}
	if h.writer.calls != 0 {
		t.Fatalf("settings written with an invalid config")
	}
}
