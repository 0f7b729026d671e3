package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/projectflow/projectflow/internal/config"
	"github.com/projectflow/projectflow/internal/policy"
	"github.com/projectflow/projectflow/internal/session"
	"github.com/projectflow/projectflow/internal/store"
)

// appConfig is set by the root command before any subcommand runs
var appConfig = config.DefaultConfig()

// newStore builds a store from the loaded config and restores any persisted
// session.
func newStore() (*store.Store, error) {
	sessions, err := session.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to locate session file: %w", err)
	}

	st := store.New(store.Options{
		BaseURL:  appConfig.ServerURL,
		Sessions: sessions,
		Policy:   policy.Options{AnyManager: appConfig.AllowAnyManager},
	})
	st.InitializeSession()
	return st, nil
}

// loggedInStore is newStore plus a login check and an initial refresh
func loggedInStore(ctx context.Context) (*store.Store, error) {
	st, err := newStore()
	if err != nil {
		return nil, err
	}
	if st.Actor() == nil {
		return nil, store.ErrNotAuthenticated
	}
	if err := st.RefreshProjects(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func shortDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
