// Package command runs administrative command lines against the plugin
// registry and installer. Each command yields one status line, which is
// also written to the tooltip of the shared state.
//
// A line is split on whitespace. The first field is the verb:
//
//	install <git-url>
//	uninstall <name>
//	mount <name> [priority]
//	unmount <name>
//	update <name>
//
// Any other line is not administrative and is forwarded to the plugins
// through the command callback.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/arukana/neko/internal/plugin"
	"github.com/arukana/neko/internal/plugin/installer"
)

// Command errors.
var (
	// ErrMissingArgument indicates a verb was given without its operand.
	ErrMissingArgument = errors.New("command: missing argument")

	// ErrTooManyArguments indicates trailing fields after the operands.
	ErrTooManyArguments = errors.New("command: too many arguments")
)

// Verbs.
const (
	VerbInstall   = "install"
	VerbUninstall = "uninstall"
	VerbMount     = "mount"
	VerbUnmount   = "unmount"
	VerbUpdate    = "update"
)

// Status is the outcome of one administrative command.
type Status struct {
	Verb string
	Arg  string
	Err  error
}

// OK reports whether the command succeeded.
func (s Status) OK() bool {
	return s.Err == nil
}

// String renders the status line shown to the user.
func (s Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("Can't %s %q because: %v.", s.Verb, s.Arg, s.Err)
	}
	return pastTense(s.Verb) + " with success."
}

func pastTense(verb string) string {
	if verb == "" {
		return ""
	}
	past := verb + "ed"
	if strings.HasSuffix(verb, "e") {
		past = verb + "d"
	}
	return strings.ToUpper(past[:1]) + past[1:]
}

// action runs a verb with its operands.
type action func(ctx context.Context, args []string) error

// Handler executes command lines. It serializes commands so that a line
// never observes a half-applied predecessor.
type Handler struct {
	mu        sync.Mutex
	registry  *plugin.Registry
	installer *installer.Installer
	logger    *logrus.Logger
	actions   map[string]action
}

// New returns a handler driving reg and inst.
func New(reg *plugin.Registry, inst *installer.Installer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	h := &Handler{
		registry:  reg,
		installer: inst,
		logger:    logger,
	}
	h.actions = map[string]action{
		VerbInstall:   h.install,
		VerbUninstall: h.uninstall,
		VerbMount:     h.mount,
		VerbUnmount:   h.unmount,
		VerbUpdate:    h.update,
	}
	return h
}

// IsAdministrative reports whether line starts with a known verb.
func (h *Handler) IsAdministrative(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	_, ok := h.actions[fields[0]]
	return ok
}

// Execute runs line. When line is administrative the status is returned
// with handled set; otherwise the line is dispatched to the plugins.
func (h *Handler) Execute(ctx context.Context, line string) (status Status, handled bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Status{}, false
	}

	if _, ok := h.actions[fields[0]]; !ok {
		h.registry.Command(line)
		return Status{}, false
	}
	return h.Run(ctx, fields[0], fields[1:]...), true
}

// Run executes verb with args and shows the status line in the tooltip.
// Unknown verbs fail with plugin.ErrNotFound.
func (h *Handler) Run(ctx context.Context, verb string, args ...string) Status {
	status := Status{Verb: verb}
	if len(args) > 0 {
		status.Arg = args[0]
	}

	act, ok := h.actions[verb]
	if !ok {
		status.Err = fmt.Errorf("%s: %w", verb, plugin.ErrNotFound)
		return status
	}

	h.mu.Lock()
	status.Err = act(ctx, args)
	h.registry.SetTooltipMessage(status.String())
	h.mu.Unlock()

	log := h.logger.WithFields(logrus.Fields{"verb": verb, "arg": status.Arg})
	if status.Err != nil {
		log.WithError(status.Err).Warn("command failed")
	} else {
		log.Debug("command succeeded")
	}
	return status
}

func operands(args []string, min, max int) error {
	if len(args) < min {
		return ErrMissingArgument
	}
	if len(args) > max {
		return ErrTooManyArguments
	}
	return nil
}

func (h *Handler) install(ctx context.Context, args []string) error {
	if err := operands(args, 1, 1); err != nil {
		return err
	}
	_, err := h.installer.Install(ctx, args[0])
	return err
}

func (h *Handler) uninstall(_ context.Context, args []string) error {
	if err := operands(args, 1, 1); err != nil {
		return err
	}
	return h.installer.Uninstall(args[0])
}

func (h *Handler) mount(_ context.Context, args []string) error {
	if err := operands(args, 1, 2); err != nil {
		return err
	}
	if len(args) == 1 {
		return h.registry.Mount(args[0])
	}

	priority, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%q: %w", args[1], plugin.ErrParseInteger)
	}
	return h.registry.Mount(args[0], plugin.WithPriority(priority))
}

func (h *Handler) unmount(_ context.Context, args []string) error {
	if err := operands(args, 1, 1); err != nil {
		return err
	}
	return h.registry.Unmount(args[0])
}

func (h *Handler) update(ctx context.Context, args []string) error {
	if err := operands(args, 1, 1); err != nil {
		return err
	}
	return h.installer.Update(ctx, args[0])
}
