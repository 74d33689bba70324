// Package plugin loads native plugins and dispatches session events to them.
//
// A plugin is a shared object exporting any subset of a fixed set of C
// symbols. Every symbol takes a pointer to the shared state.State and a
// pointer to a private slot the plugin may use for its own data:
//
//	void install(State *, void **);
//	void uninstall(State *, void **);
//	void start(State *, void **);
//	void end(State *, void **);
//	void idle(State *, void **);
//	void process(State *, void **, const char *name, pid_t pid);
//	void command(State *, void **, const char *line);
//	void key_unicode_down(State *, void **, uint64_t code);
//	void key_string_down(State *, void **, const char *text);
//	void key_repeat_down(State *, void **, uint64_t repeat);
//	void key_interval_down(State *, void **, int64_t milliseconds);
//	void mouse_down(State *, void **, uint32_t code, uint16_t x, uint16_t y);
//	void mouse_up(State *, void **, uint32_t code, uint16_t x, uint16_t y);
//	void input(State *, void **, const uint8_t *buf, size_t len);
//	void output(State *, void **, const uint8_t *buf, size_t len);
//	void signal(State *, void **, int32_t signal);
//	void resized(State *, void **, const struct winsize *);
//
// # Registry
//
// The Registry keeps mounted plugins sorted by priority and dispatches every
// Event to each of them in turn, invoking at most one callback per plugin:
//
//	reg, err := plugin.Open(layout, plugin.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	reg.Call(plugin.UnicodeEvent('a'))
//
// A plugin leaves by setting State.Unmount from any callback. During a pass
// it is ended and released once the pass completes; from install or start
// it is released immediately and Mount fails with ErrLeftOnMount.
//
// # Layout
//
// Installed plugins live under a managed root, $NEKO_PATH or ~/.neko:
//
//	git/<account>@<repo>/Manifest
//	lib/<account>@<repo>.so
//
// The Manifest is TOML:
//
//	priority = 5
//
//	[dependencies.libnya]
//	git = "https://github.com/Arukana/libnya.git"
package plugin
