package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/output"
	"taskhub/internal/service"
	"taskhub/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command: a one-shot render of the current
// snapshot through filter, search and pagination.
type ListCmd struct {
	filter string
	search string
	page   int
	detail bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskhub list [--filter all|active|completed] [--search <text>] [--page <n>] [--detail]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", string(view.FilterAll), "")
	fs.StringVar(&c.search, "search", "", "")
	fs.IntVar(&c.page, "page", 1, "")
	fs.BoolVar(&c.detail, "detail", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	filter, err := view.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", c.page)
		return exitcode.UserError
	}

	st, _, code := attachedStore(ctx, cfg, backend, errOut)
	if code != exitcode.Success {
		return code
	}
	defer st.Detach()

	v := view.NewView()
	v.SetFilter(filter)
	v.SetSearch(c.search)
	v.SetPage(c.page)

	items := st.State().Items
	matching := v.Matching(items)
	visible := v.Visible(items)

	if len(matching) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	// Numbers are positions within the filtered sequence, so they stay
	// continuous across pages.
	start := (v.PageNum-1)*view.PageSize + 1
	for i, task := range visible {
		if c.detail {
			output.FormatTaskDetail(out, start+i, task)
		} else {
			output.FormatTask(out, start+i, task)
		}
	}

	pages := view.PageCount(len(matching), view.PageSize)
	if pages > 1 {
		output.FormatPageFooter(out, v.PageNum, pages, len(matching))
	}
	return exitcode.Success
}
