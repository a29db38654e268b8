package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/synthgeo/internal/config"
	"github.com/sells-group/synthgeo/internal/resilience"
	"github.com/sells-group/synthgeo/internal/store"
)

// initStore opens and migrates the configured store. The "none" driver
// returns a nil store.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch sc.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "synthgeo.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = sc.ConnectAttempts
		retry.OnRetry = resilience.RetryLogger("store", "postgres connect")
		st, err = resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
				MaxConns: sc.MaxConns,
				MinConns: sc.MinConns,
			})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// requireStore is initStore for commands that only make sense with a store.
func requireStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	if sc.Driver == "none" {
		return nil, eris.New("store.driver is none; configure sqlite or postgres")
	}
	return initStore(ctx, sc)
}
