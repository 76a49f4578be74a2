package main

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rex/internal/config"
	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		errors.SetColor(false)
	}
	a := newApp(afero.NewOsFs(), os.Stdout, os.Stderr)
	if err := a.execute(os.Args[1:]); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the state shared by all commands.
type app struct {
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	metrics    bool

	cfg      *config.Config
	registry *prometheus.Registry
	restore  []func()
}

func newApp(fs afero.Fs, out, errOut io.Writer) *app {
	return &app{fs: fs, out: out, errOut: errOut}
}

// execute runs the CLI with args and undoes every global it installed.
func (a *app) execute(args []string) error {
	defer func() {
		for i := len(a.restore) - 1; i >= 0; i-- {
			a.restore[i]()
		}
		a.restore = nil
	}()

	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	return cmd.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rex",
		Short: "Reconcile declarative element trees against a scene graph",
		Long: `rex builds element trees described in YAML and reconciles them against
an in-memory scene graph, printing the resulting object tree and the native
operations a change costs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.registry == nil {
				return nil
			}
			return writeMetrics(a.out, a.registry)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default: rex.json, rex.yaml or rex.yml in the working directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&a.metrics, "metrics", false, "Print collected metrics after the command")

	cmd.AddCommand(
		a.renderCmd(),
		a.diffCmd(),
		versionCmd(),
	)
	return cmd
}

// setup loads configuration and installs the logger, depth limit and
// metrics collector it asks for.
func (a *app) setup() error {
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.fs, a.configPath)
	} else {
		cfg, err = config.Load(a.fs, ".")
	}
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	prev := diag.SetLogger(cfg.Logger(a.errOut))
	a.restore = append(a.restore, func() { diag.SetLogger(prev) })

	reactive.SetMaxPropagationDepth(cfg.MaxPropagationDepth)
	a.restore = append(a.restore, func() {
		reactive.SetMaxPropagationDepth(reactive.DefaultMaxPropagationDepth)
	})

	if a.metrics || cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		metrics.Init(metrics.WithRegistry(a.registry), metrics.WithNamespace(cfg.Metrics.Namespace))
		a.restore = append(a.restore, metrics.Reset)
	}
	return nil
}
