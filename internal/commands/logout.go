package commands

import (
	"context"
	"flag"
	"io"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/notify"
	"taskhub/internal/service"
	"taskhub/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Log out and discard stored credentials" }
func (c *LogoutCmd) Usage() string     { return "taskhub logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	mgr := session.NewManager(backend, notify.New(out, errOut, cfg.Quiet), commandLogger(cfg, errOut))
	if err := mgr.Logout(ctx); err != nil {
		return exitCodeFor(err)
	}
	return exitcode.Success
}
