package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/adapters/redis"
	"github.com/aretw0/stategraph/pkg/persistence/middleware"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errReported is returned once a command already told the user what went
// wrong, so main only sets the exit status.
var errReported = errors.New("reported")

// app carries what every command needs once flags and config are resolved.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger

	graphPath  string
	configFile string
	sessionID  string
	reset      bool
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "stategraph",
		Short: "Navigate and refine UI state-action graphs",
		Long: `stategraph loads a graph of UI states linked by user actions, finds the
shortest sequence of actions towards a goal, and helps consolidate duplicated
or low-value states.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.graphPath, "graph", "g", "", "Graph document (JSON, YAML or TOML)")
	flags.StringVar(&a.configFile, "config", "", "Config file (default: ./stategraph.yaml or ~/.stategraph/stategraph.yaml)")
	flags.StringVar(&a.sessionID, "session", tools.DefaultSessionID, "Refinement session to work on")
	flags.BoolVar(&a.reset, "reset", false, "Start the session over from the graph document instead of resuming it")
	flags.BoolVar(&a.jsonOut, "json", false, "Print structured results as JSON")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("store", config.BackendMemory, "Session store: memory, file or redis")
	flags.String("store-dir", ".stategraph/sessions", "Directory of the file store")
	flags.String("redis-addr", "localhost:6379", "Address of the redis store")

	a.bind(flags.Lookup("log-level"), "log.level")
	a.bind(flags.Lookup("store"), "store.backend")
	a.bind(flags.Lookup("store-dir"), "store.dir")
	a.bind(flags.Lookup("redis-addr"), "redis.addr")

	rootCmd.AddCommand(
		newPathCmd(a),
		newSearchCmd(a),
		newIdentifyCmd(a),
		newActionsCmd(a),
		newStatesCmd(a),
		newAnalyzeCmd(a),
		newSummaryCmd(a),
		newMergeCmd(a),
		newRemoveCmd(a),
		newRelabelCmd(a),
		newExportCmd(a),
		newRefineCmd(a),
		newGraphCmd(a),
		newValidateCmd(a),
		newSessionCmd(a),
		newMCPCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) load() error {
	home, _ := os.UserHomeDir()
	cfg, err := config.Load(a.v, a.configFile, home)
	if err != nil {
		return err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return &config.Error{Field: "log.level", Message: err.Error()}
	}
	a.cfg = cfg
	a.logger = logging.New(level)
	return nil
}

// bind maps a flag onto a config key; an explicitly set flag wins over the
// config file and the environment.
func (a *app) bind(flag *pflag.Flag, key string) {
	_ = a.v.BindPFlag(key, flag)
}

// store builds the snapshot store selected by the configuration, sealed
// with AES-GCM when an encryption key is configured. The returned close
// function releases backend connections.
func (a *app) store() (ports.SnapshotStore, ports.DistributedLocker, func() error, error) {
	var (
		store      ports.SnapshotStore
		locker     ports.DistributedLocker
		closeStore = func() error { return nil }
	)
	switch a.cfg.Store.Backend {
	case config.BackendFile:
		store = file.NewStore(a.cfg.Store.Dir)
	case config.BackendRedis:
		rc := a.cfg.Redis
		s := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		store, locker, closeStore = s, redis.NewLocker(s.Client(), rc.Prefix), s.Close
	case config.BackendMemory:
		store = memory.NewStore()
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}

	if a.cfg.Store.EncryptionKey == "" {
		return store, locker, closeStore, nil
	}
	enc, err := a.encryption()
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	return middleware.Chain(store, enc), locker, closeStore, nil
}

func (a *app) encryption() (middleware.Middleware, error) {
	active, err := middleware.ParseKey(a.cfg.Store.EncryptionKey)
	if err != nil {
		return nil, &config.Error{Field: "store.encryption_key", Message: err.Error()}
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for _, encoded := range a.cfg.Store.FallbackKeys {
		key, err := middleware.ParseKey(encoded)
		if err != nil {
			return nil, &config.Error{Field: "store.fallback_keys", Message: err.Error()}
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return middleware.NewEncryption(cfg)
}

// open loads the workspace for the graph flag. Unless --reset is given the
// session is resumed from the store when it exists.
func (a *app) open(ctx context.Context, extra ...stategraph.Option) (*stategraph.Workspace, func() error, error) {
	if a.graphPath == "" {
		return nil, nil, errors.New("no graph given, use --graph <file>")
	}
	store, locker, closeStore, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	opts := []stategraph.Option{
		stategraph.WithLogger(a.logger),
		stategraph.WithStore(store),
		stategraph.WithSessionID(a.sessionID),
		stategraph.WithToolOptions(
			tools.WithMaxSteps(a.cfg.Navigation.MaxSteps),
			tools.WithSearchLimit(a.cfg.Navigation.SearchLimit),
		),
	}
	if locker != nil {
		opts = append(opts, stategraph.WithLocker(locker))
	}
	if !a.reset {
		opts = append(opts, stategraph.WithResume())
	}
	ws, err := stategraph.Open(ctx, a.graphPath, append(opts, extra...)...)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return ws, closeStore, nil
}

// call runs a tool against a freshly opened workspace and prints its result.
func (a *app) call(cmd *cobra.Command, name string, args map[string]any) error {
	ws, closeStore, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := ws.Call(cmd.Context(), name, args)
	if err != nil {
		return err
	}
	return a.printResult(cmd.OutOrStdout(), res)
}

func (a *app) printResult(w io.Writer, res *tools.Result) error {
	if a.jsonOut {
		if err := writeJSON(w, res); err != nil {
			return err
		}
	} else if err := tui.Markdown(w, res.Text); err != nil {
		return err
	}
	if res.NotFound {
		return errReported
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
