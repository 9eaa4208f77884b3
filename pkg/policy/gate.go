// Package policy decides whether a write operation may run.
//
// A Gate combines two checks: the guardian (the request context carries every
// required key) and the calendar (execution windows). The calendar check is
// fail-closed: without a readable credentials file it denies.
package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
)

// ErrDenied is returned by Gate.Check when the policy rejects a request.
var ErrDenied = errors.New("denied by policy")

// DefaultRequiredKeys are the context keys the guardian demands.
var DefaultRequiredKeys = []string{"source", "intent", "repo"}

// Config holds the policy settings.
type Config struct {
	// Enforce turns the gate on. A gate that does not enforce allows everything.
	Enforce         bool     `env:"DOC_EVOLVE_POLICY_ENFORCE" envDefault:"false"`
	CredentialsPath string   `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	RequiredKeys    []string `env:"DOC_EVOLVE_POLICY_KEYS" envDefault:"source,intent,repo" envSeparator:","`
}

// LoadConfig reads the policy settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse policy config: %w", err)
	}
	return cfg, nil
}

// Context describes who is asking and why (e.g. source=cli, intent=track).
type Context map[string]string

// GuardianApprove reports whether every required key is present in ctx.
func GuardianApprove(ctx Context, required []string) bool {
	for _, key := range required {
		if _, ok := ctx[key]; !ok {
			return false
		}
	}
	return true
}

// CalendarAllows reports whether the execution window is open.
// Without readable credentials there is no calendar to ask, so it denies.
func CalendarAllows(cfg Config) bool {
	return CredentialsReadable(cfg)
}

// Gate evaluates the policy for a request context.
type Gate struct {
	cfg Config
}

// NewGate creates a gate. Empty RequiredKeys fall back to DefaultRequiredKeys.
func NewGate(cfg Config) *Gate {
	if len(cfg.RequiredKeys) == 0 {
		cfg.RequiredKeys = DefaultRequiredKeys
	}
	return &Gate{cfg: cfg}
}

// Allows reports whether ctx passes both the guardian and the calendar.
func (g *Gate) Allows(ctx Context) bool {
	return g.Check(ctx) == nil
}

// Check is Allows with the reason of a denial, wrapped in ErrDenied.
func (g *Gate) Check(ctx Context) error {
	if g == nil || !g.cfg.Enforce {
		return nil
	}

	if missing := g.missing(ctx); len(missing) > 0 {
		return fmt.Errorf("%w: missing context keys: %s", ErrDenied, strings.Join(missing, ", "))
	}
	if strings.TrimSpace(g.cfg.CredentialsPath) == "" {
		return fmt.Errorf("%w: calendar unavailable (%s is not set)", ErrDenied, "GOOGLE_APPLICATION_CREDENTIALS")
	}
	if !CalendarAllows(g.cfg) {
		return fmt.Errorf("%w: calendar unavailable (cannot read %s)", ErrDenied, g.cfg.CredentialsPath)
	}
	return nil
}

func (g *Gate) missing(ctx Context) []string {
	var out []string
	for _, key := range g.cfg.RequiredKeys {
		if !GuardianApprove(ctx, []string{key}) {
			out = append(out, key)
		}
	}
	return out
}

// Enforcing reports whether the gate rejects anything at all.
func (g *Gate) Enforcing() bool {
	return g != nil && g.cfg.Enforce
}

// CredentialsReadable reports whether the configured credentials file can be
// opened for reading.
func CredentialsReadable(cfg Config) bool {
	if strings.TrimSpace(cfg.CredentialsPath) == "" {
		return false
	}
	f, err := os.Open(cfg.CredentialsPath)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}
