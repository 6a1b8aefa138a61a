// Package notify emits user-facing confirmation and error notifications,
// the terminal rendering of what a UI would show as a toast.
package notify

import (
	"fmt"
	"io"
)

// Notifier writes notifications to a pair of output streams. Success and
// warning notifications can be silenced with quiet; errors cannot.
type Notifier struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// New creates a Notifier.
func New(out, errOut io.Writer, quiet bool) *Notifier {
	return &Notifier{out: out, errOut: errOut, quiet: quiet}
}

// Success emits a confirmation notification.
func (n *Notifier) Success(format string, args ...any) {
	if n == nil || n.quiet {
		return
	}
	fmt.Fprintf(n.out, format+"\n", args...)
}

// Warning emits a non-fatal warning.
func (n *Notifier) Warning(format string, args ...any) {
	if n == nil || n.quiet {
		return
	}
	fmt.Fprintf(n.errOut, "warning: "+format+"\n", args...)
}

// Error emits an error notification. Not silenced by quiet.
func (n *Notifier) Error(format string, args ...any) {
	if n == nil {
		return
	}
	fmt.Fprintf(n.errOut, "error: "+format+"\n", args...)
}
