package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/services"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
	tu "github.com/desertthunder/dhunjam/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"
)

type harness struct {
	runner *Runner
	api    *tu.FakeAdminAPI
	mgr    *session.Manager
	out    *bytes.Buffer
}

func newHarness(t *testing.T, api *tu.FakeAdminAPI, sess *models.Session, input string) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	logger := shared.NewLogger(io.Discard)
	mgr := session.NewManager(session.NewMemoryStore(sess), logger)
	runner := NewRunner(RunnerOpts{
		Admin:    api,
		Sessions: mgr,
		Logger:   logger,
		Input:    strings.NewReader(input),
		Output:   out,
	})
	return &harness{runner: runner, api: api, mgr: mgr, out: out}
}

// run executes the CLI with a config path that does not exist, so defaults apply.
func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	base := []string{"dhunjam", "--config", filepath.Join(t.TempDir(), "config.toml"), "--env-file", ""}
	return newApp(h.runner).Run(context.Background(), append(base, args...))
}

func signedIn() *models.Session {
	return &models.Session{AdminID: 1, Token: "tok", Username: "DJ@4"}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := &services.APIService{}
			admin := &tu.FakeAdminAPI{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				API:    api,
				Admin:  admin,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.adminAPI() != admin {
				t.Error("expected admin to be used as is")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("builds admin client from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = "https://api.example.test/account/"
			runner := NewRunner(RunnerOpts{Config: config})

			if _, ok := runner.adminAPI().(*services.AdminService); !ok {
				t.Error("expected an AdminService")
			}
			if runner.api.BaseURL() != "https://api.example.test/account" {
				t.Errorf("unexpected base url %q", runner.api.BaseURL())
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for i, cmd := range runner.register() {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "login", "logout", "whoami", "settings", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command", want)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("env overrides", func(t *testing.T) {
			t.Setenv("DHUNJAM_API_URL", "https://override.test")
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

			if err := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"), ""); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.API.BaseURL != "https://override.test" {
				t.Errorf("expected env override, got %q", runner.config.API.BaseURL)
			}
		})

		t.Run("malformed file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[api\n"), 0644); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

			if err := runner.loadConfig(path, ""); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestLoginCommands(t *testing.T) {
	t.Run("login with password from stdin", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Session: models.Session{AdminID: 4, Token: "jwt"}}
		h := newHarness(t, api, nil, "Dhunjam@2023\n")

		if err := h.run(t, "login", "-u", "DJ@4", "--password-stdin"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "✓ Login successful (admin 4)") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if api.LoginCalls[0].Password != "Dhunjam@2023" {
			t.Errorf("unexpected password sent %q", api.LoginCalls[0].Password)
		}
		if s, err := h.mgr.Current(context.Background()); err != nil || s.AdminID != 4 {
			t.Errorf("expected stored session, got %+v %v", s, err)
		}
	})

	t.Run("short password is not sent", func(t *testing.T) {
		api := &tu.FakeAdminAPI{}
		h := newHarness(t, api, nil, "")

		err := h.run(t, "login", "-u", "DJ@4", "-p", "1234567")
		if !errors.Is(err, shared.ErrInvalidInput) || !strings.Contains(err.Error(), "Please enter a valid password") {
			t.Errorf("expected invalid password, got %v", err)
		}
		if login, _, _ := api.Calls(); login != 0 {
			t.Error("no request expected")
		}
	})

	t.Run("missing password", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{}, nil, "")

		if err := h.run(t, "login", "-u", "DJ@4"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("rejected credentials", func(t *testing.T) {
		api := &tu.FakeAdminAPI{LoginErr: &services.APIError{Op: "login", StatusCode: 401, Message: "Invalid credentials"}}
		h := newHarness(t, api, nil, "")

		err := h.run(t, "login", "-u", "DJ@4", "-p", "password1")
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "Invalid credentials") {
			t.Errorf("expected auth failure, got %v", err)
		}
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{}, signedIn(), "")

		if err := h.run(t, "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, err := h.mgr.Current(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("expected session cleared")
		}
	})

	t.Run("whoami", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatal(err)
		}
		h := newHarness(t, &tu.FakeAdminAPI{}, &models.Session{AdminID: 1, Token: token, Username: "DJ@4"}, "")

		if err := h.run(t, "whoami"); err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		out := h.out.String()
		for _, want := range []string{"Admin ID: 1", "Username: DJ@4", "Expires: "} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("whoami write failure", func(t *testing.T) {
		logger := shared.NewLogger(io.Discard)
		runner := NewRunner(RunnerOpts{
			Admin:    &tu.FakeAdminAPI{},
			Sessions: session.NewManager(session.NewMemoryStore(signedIn()), logger),
			Logger:   logger,
			Output:   &tu.FWriter{},
		})

		if err := runner.WhoAmI(context.Background(), &cli.Command{}); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("whoami signed out", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{}, nil, "")

		if err := h.run(t, "whoami"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSettingsCommands(t *testing.T) {
	t.Run("show csv", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{Settings: tu.CafeX()}, signedIn(), "")

		if err := h.run(t, "settings", "show", "--format", "csv"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "tier1,category_7,Category 1,79,80") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("show without session sends nothing", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		h := newHarness(t, api, nil, "")

		if err := h.run(t, "settings", "show"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, get, _ := api.Calls(); get != 0 {
			t.Error("no request expected")
		}
	})

	t.Run("show with rejected token clears session", func(t *testing.T) {
		api := &tu.FakeAdminAPI{GetErr: &services.APIError{Op: "get", StatusCode: 401}}
		h := newHarness(t, api, signedIn(), "")

		if err := h.run(t, "settings", "show"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := h.mgr.Current(context.Background()); err == nil {
			t.Error("expected session cleared")
		}
	})

	t.Run("show unknown format", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{Settings: tu.CafeX()}, signedIn(), "")

		if err := h.run(t, "settings", "show", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("set sends only amounts and shows result", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		h := newHarness(t, api, signedIn(), "")

		if err := h.run(t, "settings", "set", "--tier1", "90"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if api.UpdateCalls[0] != (models.Amounts{100, 90, 60, 40, 20}) {
			t.Errorf("unexpected update %v", api.UpdateCalls[0])
		}
		out := h.out.String()
		if !strings.Contains(out, "✓ Prices updated") || !strings.Contains(out, "Cafe X, Downtown on Dhun Jam") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("set keeps unflagged categories", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		h := newHarness(t, api, signedIn(), "")

		if err := h.run(t, "settings", "set", "--custom", "120", "--tier4", "25"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if api.UpdateCalls[0] != (models.Amounts{120, 80, 60, 40, 25}) {
			t.Errorf("unexpected update %v", api.UpdateCalls[0])
		}
	})

	t.Run("set write failure", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		logger := shared.NewLogger(io.Discard)
		runner := NewRunner(RunnerOpts{
			Admin:    api,
			Sessions: session.NewManager(session.NewMemoryStore(signedIn()), logger),
			Logger:   logger,
			Output:   &tu.FWriter{},
		})
		args := []string{"dhunjam", "--config", filepath.Join(t.TempDir(), "config.toml"), "--env-file", "", "settings", "set", "--tier1", "90"}

		if err := newApp(runner).Run(context.Background(), args); err == nil {
			t.Error("expected write error")
		}
		if _, _, update := api.Calls(); update != 1 {
			t.Errorf("expected the update to be sent, got %d", update)
		}
	})

	t.Run("set below floor", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		h := newHarness(t, api, signedIn(), "")

		err := h.run(t, "settings", "set", "--tier1", "70")
		if !errors.Is(err, shared.ErrBelowFloor) {
			t.Errorf("expected ErrBelowFloor, got %v", err)
		}
		if _, _, update := api.Calls(); update != 0 {
			t.Error("no update expected")
		}
	})

	t.Run("set dry run", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX()}
		h := newHarness(t, api, signedIn(), "")

		if err := h.run(t, "settings", "set", "--custom", "150", "--dry-run"); err != nil {
			t.Fatalf("dry run failed: %v", err)
		}
		if _, _, update := api.Calls(); update != 0 {
			t.Error("dry run must not send")
		}
		out := h.out.String()
		if !strings.Contains(out, `"category_6": 150`) || strings.Contains(out, `"name"`) {
			t.Errorf("unexpected body %q", out)
		}
	})

	t.Run("set with charging off", func(t *testing.T) {
		settings := tu.CafeX()
		settings.ChargeCustomers = false
		api := &tu.FakeAdminAPI{Settings: settings}
		h := newHarness(t, api, signedIn(), "")

		if err := h.run(t, "settings", "set", "--custom", "150"); !errors.Is(err, shared.ErrChargingDisabled) {
			t.Errorf("expected ErrChargingDisabled, got %v", err)
		}
	})

	t.Run("set without flags", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAdminAPI{Settings: tu.CafeX()}, signedIn(), "")

		if err := h.run(t, "settings", "set"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("set server failure", func(t *testing.T) {
		api := &tu.FakeAdminAPI{Settings: tu.CafeX(), UpdateErr: &services.APIError{Op: "update", StatusCode: 500}}
		h := newHarness(t, api, signedIn(), "")

		err := h.run(t, "settings", "set", "--custom", "150")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Failed to update data") {
			t.Errorf("expected update failure, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "dhunjam.db")
	t.Setenv("DHUNJAM_DB_PATH", dbPath)

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: out})

	err := newApp(runner).Run(context.Background(), []string{"dhunjam", "--config", configPath, "--env-file", "", "setup"})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("expected config file: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Database ready") {
		t.Errorf("unexpected output %q", out.String())
	}
}
