package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/service"
	"taskhub/internal/state"
	"taskhub/internal/view"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskhub add [--desc <text>] [--priority low|medium|high] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.priority, "priority", string(service.PriorityMedium), "")
	fs.StringVar(&c.priority, "p", string(service.PriorityMedium), "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	form := view.FormForCreate()
	form.Title = strings.Join(args, " ")
	form.Description = c.description
	form.Priority = c.priority

	// Validation is resolved locally; nothing is dispatched while the
	// form has field errors.
	if errs := form.Validate(); len(errs) > 0 {
		for _, fe := range errs {
			fmt.Fprintf(errOut, "error: %s\n", fe)
		}
		return exitcode.UserError
	}

	st := state.New(backend, commandLogger(cfg, errOut))
	if err := st.AddTask(ctx, form.Draft()); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitCodeFor(err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
