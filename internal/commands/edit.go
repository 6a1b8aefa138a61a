package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/service"
	"taskhub/internal/view"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields whose flags were
// given are changed; the rest of the task is left alone.
type EditCmd struct {
	title       *string
	description *string
	priority    *string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskhub edit [--title <text>] [--desc <text>] [--priority low|medium|high] <n>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	// flag.Func records which flags were actually given, so an empty
	// value is distinguishable from an absent flag.
	fs.Func("title", "", func(s string) error {
		c.title = &s
		return nil
	})
	fs.Func("desc", "", func(s string) error {
		c.description = &s
		return nil
	})
	fs.Func("priority", "", func(s string) error {
		c.priority = &s
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		if errors.Is(err, ErrTaskRefRequired) {
			fmt.Fprintln(errOut, "error: task reference required")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	}

	if c.title == nil && c.description == nil && c.priority == nil {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	st, _, code := attachedStore(ctx, cfg, backend, errOut)
	if code != exitcode.Success {
		return code
	}
	defer st.Detach()

	task, err := ResolveTask(st.State().Items, num)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Validate the edited form as a whole, then patch only the fields
	// that were given.
	form := view.FormForEdit(task)
	if c.title != nil {
		form.Title = *c.title
	}
	if c.description != nil {
		form.Description = *c.description
	}
	if c.priority != nil {
		form.Priority = *c.priority
	}
	if errs := form.Validate(); len(errs) > 0 {
		for _, fe := range errs {
			fmt.Fprintf(errOut, "error: %s\n", fe)
		}
		return exitcode.UserError
	}

	var patch service.TaskPatch
	if c.title != nil {
		title := strings.TrimSpace(*c.title)
		patch.Title = &title
	}
	if c.description != nil {
		patch.Description = c.description
	}
	if c.priority != nil {
		p := service.Priority(*c.priority)
		patch.Priority = &p
	}

	if err := st.UpdateTask(ctx, task.ID, patch); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitCodeFor(err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
