package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/logger"
	"taskhub/internal/service"
	"taskhub/internal/state"
)

// snapshotTimeout bounds the wait for the first subscription snapshot.
const snapshotTimeout = 10 * time.Second

// commandLogger returns a stderr logger honoring --debug.
func commandLogger(cfg *config.Config, errOut io.Writer) logger.Logger {
	if cfg.Debug {
		return logger.New(errOut, logger.DebugLevel)
	}
	return logger.Discard()
}

// exitCodeFor maps a backend failure onto an exit code.
func exitCodeFor(err error) int {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		return exitcode.AuthError
	}
	return exitcode.BackendError
}

// attachedStore opens a state container subscribed to the logged-in
// owner's tasks and waits for the first snapshot. The caller must
// Detach it. The int is an exit code; exitcode.Success means ready.
func attachedStore(ctx context.Context, cfg *config.Config, backend service.Backend, errOut io.Writer) (*state.Store, *service.Session, int) {
	sess, err := backend.CurrentSession(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, nil, exitCodeFor(err)
	}
	if sess == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: taskhub login)")
		return nil, nil, exitcode.AuthError
	}

	st := state.New(backend, commandLogger(cfg, errOut))
	if err := st.Attach(ctx, sess.UserID); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, nil, exitCodeFor(err)
	}

	if err := awaitSync(ctx, st); err != nil {
		st.Detach()
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, nil, exitcode.BackendError
	}
	return st, sess, exitcode.Success
}

// awaitSync blocks until the container has received its first snapshot.
func awaitSync(ctx context.Context, st *state.Store) error {
	synced := make(chan struct{}, 1)
	cancel := st.OnChange(func(s state.State) {
		if s.Synced {
			select {
			case synced <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	if st.State().Synced {
		return nil
	}
	select {
	case <-synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(snapshotTimeout):
		return errors.New("timed out waiting for task snapshot")
	}
}
