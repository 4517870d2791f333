package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/timesheet/internal/config"
	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/remote"
	"github.com/Tiliavir/timesheet/internal/sqlstore"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// dataDir returns the configured data directory, defaulting to ~/.tsh.
func dataDir() (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	return storage.BaseDir()
}

// openStore opens the configured backend. The returned func releases it.
func openStore(ctx context.Context) (reconcile.Store, func(), error) {
	dir, err := dataDir()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlstore.Open(filepath.Join(dir, "tsh.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.BackendRemote:
		if cfg.Remote.BaseURL == "" {
			return nil, nil, errors.New("remote backend needs remote.base_url in ~/.tsh/config.json or TSH_API_URL")
		}
		ts, err := remote.TokenSource(ctx, remote.AuthConfig{
			Token:         cfg.Remote.Token,
			ClientID:      cfg.Remote.ClientID,
			TokenURL:      cfg.Remote.TokenURL,
			DeviceAuthURL: cfg.Remote.DeviceAuthURL,
			Scopes:        cfg.Remote.Scopes,
			TokenFile:     filepath.Join(dir, "auth", "token.json"),
		}, os.Stderr)
		if err != nil {
			return nil, nil, err
		}
		return remote.NewAuthClient(ctx, cfg.Remote.BaseURL, ts), func() {}, nil
	default:
		return storage.New(dir), func() {}, nil
	}
}

// refDate returns the date selected with --week, or now.
func refDate() (time.Time, error) {
	if weekOf == "" {
		return time.Now(), nil
	}
	t, err := timecalc.ParseDateKey(model.DateKey(weekOf))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --week %q is not a YYYY-MM-DD date", reconcile.ErrValidation, weekOf)
	}
	return t, nil
}

// loadWeek opens the store and loads the week containing ref into a reconciler.
func loadWeek(ctx context.Context, ref time.Time) (*reconcile.Reconciler, func(), error) {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := reconcile.New(store, cfg.Thresholds(), logger)
	if err := r.Load(ctx, cfg.UserID, ref); err != nil {
		closeStore()
		return nil, nil, err
	}
	return r, closeStore, nil
}

// rowSpec identifies a grid row either by key or by client/project/task ids.
type rowSpec struct {
	key, client, project, task string
}

// resolve returns the row key for s, adding the row to r when it is not in
// the loaded week yet.
func (s rowSpec) resolve(ctx context.Context, r *reconcile.Reconciler) (string, error) {
	key := s.key
	if key == "" {
		if s.project == "" || s.task == "" {
			return "", fmt.Errorf("%w: pass --row, or --project and --task", reconcile.ErrValidation)
		}
		key = model.RowKey(s.project, s.task)
	}

	exists := false
	r.View(func(g *grid.WeekGrid, _ overtime.Report) {
		exists = g.Row(key) != nil
	})
	if exists {
		return key, nil
	}
	if s.client == "" || s.project == "" || s.task == "" {
		return "", fmt.Errorf("%w: row %s is not in this week; pass --client, --project and --task to add it", reconcile.ErrValidation, key)
	}
	if _, err := r.AddRow(ctx, model.Ref{ID: s.client}, s.project, s.task); err != nil {
		return "", err
	}
	return key, nil
}

// dayArg parses a --day value, defaulting to today.
func dayArg(v string) (model.DateKey, error) {
	if v == "" {
		return timecalc.DateKeyOf(time.Now()), nil
	}
	if _, err := timecalc.ParseDateKey(model.DateKey(v)); err != nil {
		return "", fmt.Errorf("%w: --day %q is not a YYYY-MM-DD date", reconcile.ErrValidation, v)
	}
	return model.DateKey(v), nil
}
