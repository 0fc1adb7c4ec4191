package db

import (
	"context"
	"fmt"

	"transit-mapper/internal/config"
	"transit-mapper/internal/mylogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	ctx   context.Context
	cfg   *config.DBconfig
	mylog mylogger.Logger
	pool  *pgxpool.Pool
}

func New(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Database,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	d := &DB{
		ctx:   ctx,
		cfg:   dbCfg,
		mylog: mylog,
		pool:  pool,
	}
	if err := d.IsAlive(); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// IsAlive pings the DB to verify it's responsive
func (d *DB) IsAlive() error {
	if d.pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	return d.pool.Ping(d.ctx)
}
