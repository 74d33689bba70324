// Package main is the entry point for neko.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arukana/neko/internal/command"
	"github.com/arukana/neko/internal/config"
	"github.com/arukana/neko/internal/integration/git"
	"github.com/arukana/neko/internal/plugin"
	"github.com/arukana/neko/internal/plugin/installer"
	"github.com/arukana/neko/internal/plugin/watch"
	"github.com/arukana/neko/internal/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errStatus marks a failure already reported as a status line.
var errStatus = errors.New("command failed")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errStatus) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app holds what every subcommand needs once the root is resolved.
type app struct {
	root     string
	logLevel string

	cfg       *config.Config
	logger    *logrus.Logger
	registry  *plugin.Registry
	installer *installer.Installer
	handler   *command.Handler
	closers   []io.Closer
}

// open loads the configuration and mounts every installed plugin. Logs go
// to logOut.
func (a *app) open(logOut io.Writer) error {
	cfg, err := config.Load(a.root)
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
	a.logger = cfg.NewLogger(logOut)

	reg, err := plugin.Open(cfg.Layout(), plugin.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.registry = reg

	a.installer = installer.New(reg,
		installer.WithLogger(a.logger),
		installer.WithGit(git.New()),
		installer.WithRemote(cfg.Git.Remote),
		installer.WithBranch(cfg.Git.Branch),
		installer.WithBuilder(installer.CommandBuilder{
			Command: cfg.Build.Command,
			Stdout:  a.logger.WriterLevel(logrus.DebugLevel),
			Stderr:  a.logger.WriterLevel(logrus.DebugLevel),
		}),
	)
	a.handler = command.New(reg, a.installer, a.logger)
	return nil
}

func (a *app) close() {
	if a.registry != nil {
		a.registry.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "neko",
		Short: "A terminal companion driven by native plugins",
		Long: `neko hosts your shell on a pseudo-terminal and forwards everything that
happens in it to plugins: shared libraries installed from git repositories
under $NEKO_PATH (default ~/.neko).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.root, "root", "", "Plugin root (default $"+plugin.RootEnv+" or ~/.neko)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		adminCmd(a, command.VerbInstall, "install <git-url>", "Clone, build and mount a plugin and its dependencies", cobra.ExactArgs(1)),
		adminCmd(a, command.VerbUninstall, "uninstall <name>", "End a plugin and remove its files", cobra.ExactArgs(1)),
		adminCmd(a, command.VerbMount, "mount <name> [priority]", "Load an installed plugin", cobra.RangeArgs(1, 2)),
		adminCmd(a, command.VerbUnmount, "unmount <name>", "Release a mounted plugin", cobra.ExactArgs(1)),
		adminCmd(a, command.VerbUpdate, "update <name>", "Fetch, rebuild and remount a plugin", cobra.ExactArgs(1)),
		listCmd(a),
		execCmd(a),
		runCmd(a),
		versionCmd(),
	)
	return root
}

// adminCmd runs one administrative verb and prints its status line.
func adminCmd(a *app, verb, use, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if err := a.open(cmd.ErrOrStderr()); err != nil {
				return err
			}
			status := a.handler.Run(cmd.Context(), verb, args...)
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if !status.OK() {
				return errStatus
			}
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mounted plugins in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			if err := a.open(cmd.ErrOrStderr()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tNAME\tCALLBACKS")
			for _, h := range a.registry.List() {
				fmt.Fprintf(w, "%d\t%s\t%s\n", h.Priority(), h.Name(), strings.Join(h.Bound(), ","))
			}
			return w.Flush()
		},
	}
}

func execCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <line>...",
		Short: "Run a command line as typed in a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if err := a.open(cmd.ErrOrStderr()); err != nil {
				return err
			}
			status, handled := a.handler.Execute(cmd.Context(), strings.Join(args, " "))
			if !handled {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if !status.OK() {
				return errStatus
			}
			return nil
		},
	}
}

func runCmd(a *app) *cobra.Command {
	var shellArgs []string

	cmd := &cobra.Command{
		Use:   "run [-- shell args]",
		Short: "Start a shell session hosting the mounted plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			cfg, err := config.Load(a.root)
			if err != nil {
				return err
			}
			logFile, err := cfg.OpenLog()
			if err != nil {
				return err
			}
			a.closers = append(a.closers, logFile)

			if err := a.open(logFile); err != nil {
				return err
			}

			w, err := watch.New(a.cfg.Layout().LibDir(), watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			a.closers = append(a.closers, w)

			s := session.New(a.registry, session.Options{
				Shell:    a.cfg.Session.Shell,
				Args:     append(shellArgs, args...),
				Idle:     a.cfg.Session.Idle.Std(),
				Repeat:   a.cfg.Session.Repeat.Std(),
				Requests: w.Requests(),
				Logger:   a.logger,
			})
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVar(&shellArgs, "shell-arg", nil, "Argument passed to the shell (repeatable)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "neko %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
