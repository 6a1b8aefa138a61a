package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskhub help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskhub                                        List tasks (page 1)
  taskhub list [--filter all|active|completed] [--search <text>] [--page <n>] [--detail]
  taskhub watch [--filter all|active|completed] [--search <text>]
  taskhub add [--desc <text>] [--priority low|medium|high] <title...>
  taskhub done <n>
  taskhub undone <n>
  taskhub edit [--title <text>] [--desc <text>] [--priority low|medium|high] <n>
  taskhub rm <n>
  taskhub register [--name <display-name>] <email> <password>
  taskhub login <email> <password>
  taskhub logout
  taskhub whoami
  taskhub help
  taskhub version

Task numbers refer to positions in the unfiltered list, newest first.

Common flags:
  --config <dir>   Override config directory
  --server <url>   Override server URL (or set TASKHUB_SERVER)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
