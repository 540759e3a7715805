package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open connects to the SQLite journal and checks the connection.
func Open(ctx context.Context, dsn string, log *logger.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps SQLite from returning SQLITE_BUSY
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.LogDatabase("CONNECT", "sqlite", dsn)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate creates the journal schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	_, err := db.NewCreateTable().
		Model((*models.CheckoutRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create checkouts table: %w", err)
	}

	_, err = db.NewCreateIndex().
		Model((*models.CheckoutRecord)(nil)).
		Index("checkouts_state_updated_idx").
		Column("state", "updated_at").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create checkouts index: %w", err)
	}

	log.LogDatabase("MIGRATE", "checkouts", "schema ready")
	return nil
}

// Reset drops the journal schema. Migrate recreates it.
func Reset(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	_, err := db.NewDropTable().
		Model((*models.CheckoutRecord)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drop checkouts table: %w", err)
	}
	log.LogDatabase("RESET", "checkouts", "table dropped")
	return nil
}

// Prune deletes finished checkouts last updated before cutoff.
func Prune(ctx context.Context, db *bun.DB, cutoff time.Time, log *logger.Logger) (int64, error) {
	res, err := db.NewDelete().
		Model((*models.CheckoutRecord)(nil)).
		Where("state IN (?)", bun.In([]models.CheckoutState{models.CheckoutPaid, models.CheckoutCancelled})).
		Where("updated_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune checkouts: %w", err)
	}
	n, _ := res.RowsAffected()
	log.LogDatabase("PRUNE", "checkouts", fmt.Sprintf("%d rows older than %s removed", n, cutoff.Format(time.RFC3339)))
	return n, nil
}
