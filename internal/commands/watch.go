package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sync"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/notify"
	"taskhub/internal/output"
	"taskhub/internal/route"
	"taskhub/internal/service"
	"taskhub/internal/session"
	"taskhub/internal/state"
	"taskhub/internal/view"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: a long-running live view that
// re-renders the list on every snapshot push until interrupted.
type WatchCmd struct {
	filter string
	search string
}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Follow the task list live" }
func (c *WatchCmd) Usage() string {
	return "taskhub watch [--filter all|active|completed] [--search <text>]"
}
func (c *WatchCmd) NeedsAuth() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", string(view.FilterAll), "")
	fs.StringVar(&c.search, "search", "", "")
}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	filter, err := view.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	log := commandLogger(cfg, errOut)
	mgr := session.NewManager(backend, notify.New(out, errOut, cfg.Quiet), log)
	if err := mgr.Start(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitCodeFor(err)
	}
	defer mgr.Close()

	guard := route.NewGuard()
	sess, _ := mgr.Session()
	guard.Apply(sess)
	if guard.Resolve() != route.Allow {
		fmt.Fprintln(errOut, "error: not logged in (run: taskhub login)")
		return exitcode.AuthError
	}

	v := view.NewView()
	v.SetFilter(filter)
	v.SetSearch(c.search)

	st := state.New(backend, log)
	defer st.Detach()

	render := func(s state.State) {
		if !s.Synced {
			return
		}
		if s.Stale {
			fmt.Fprintf(errOut, "warning: live updates interrupted: %s\n", s.Err)
			return
		}
		matching := v.Matching(s.Items)
		fmt.Fprintln(out, "---")
		if len(matching) == 0 {
			fmt.Fprintln(out, "no tasks found")
			return
		}
		for i, task := range matching {
			output.FormatTask(out, i+1, task)
		}
	}
	cancelRender := st.OnChange(render)
	defer cancelRender()

	// A provider push of nil, from token expiry or a logout elsewhere,
	// ends the watch the way a route guard redirects to login.
	sessionGone := make(chan struct{})
	var gone sync.Once
	cancelObserve := mgr.Observe(func(sess *service.Session, known bool) {
		guard.Apply(sess)
		if guard.Resolve() != route.Allow {
			gone.Do(func() { close(sessionGone) })
		}
	})
	defer cancelObserve()

	if err := st.Attach(ctx, sess.UserID); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitCodeFor(err)
	}

	select {
	case <-ctx.Done():
		return exitcode.Success
	case <-sessionGone:
		fmt.Fprintln(errOut, "error: session ended")
		return exitcode.AuthError
	}
}
