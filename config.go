/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	cluePenalty    bool
	logLevel       string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	sessionTimeout time.Duration
	store          string
	strictClues    bool
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	envErr error
	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.rateLimit <= 0 {
		return fmt.Errorf("invalid rate limit (must be greater than 0): %v", c.rateLimit)
	}
	if c.rateBurst < 1 {
		return fmt.Errorf("invalid rate burst (must be at least 1): %d", c.rateBurst)
	}
	if !validStore(c.store) {
		return fmt.Errorf("invalid store (must be memory, postgres://... or sqlite://...): %q", c.store)
	}
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid log level (must be trace, debug, info, warn, error or disabled): %q", c.logLevel)
	}
	return nil
}

// setup validates the configuration and builds the logger, reporting
// anything that went wrong before a logger existed.
func (c *Config) setup(w io.Writer) error {
	if err := c.validate(); err != nil {
		return err
	}

	c.logger = newLogger(c, w)

	if c.envErr != nil {
		c.logger.Warn().Err(c.envErr).Msg("START: Failed to load .env")
	}

	return nil
}

func validStore(dsn string) bool {
	switch {
	case dsn == "memory":
		return true
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return true
	case strings.HasPrefix(dsn, "sqlite://"):
		return len(dsn) > len("sqlite://")
	}
	return false
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPYBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "spyboard",
		Short:         "Codenames for one TV and two phones, where the spymasters tap the guesses.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SPYBOARD_BIND)")
	fs.BoolVar(&cfg.cluePenalty, "clue-penalty", true, "reveal a card for the challenger when a clue is rejected, in new rooms (env: SPYBOARD_CLUE_PENALTY)")
	fs.StringVar(&cfg.logLevel, "log-level", "", "log level, overriding --verbose: trace, debug, info, warn or error (env: SPYBOARD_LOG_LEVEL)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected devices lose their seat (env: SPYBOARD_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SPYBOARD_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SPYBOARD_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SPYBOARD_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "messages a device may send in a burst (env: SPYBOARD_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "messages per second a device may send (env: SPYBOARD_RATE_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are deleted (env: SPYBOARD_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.store, "store", "memory", "room store: memory, postgres://... or sqlite://<path> (env: SPYBOARD_STORE)")
	fs.BoolVar(&cfg.strictClues, "strict-clues", true, "reject clues that match a board word, in new rooms (env: SPYBOARD_STRICT_CLUES)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SPYBOARD_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SPYBOARD_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SPYBOARD_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SPYBOARD_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("spyboard v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
