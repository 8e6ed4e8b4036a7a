// Package store provides the SQLite-backed observation cache used by
// remote data providers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

// ObservationCache caches daily observations per (symbol, date) so
// repeated backtest runs do not refetch from remote APIs. Run state is
// never persisted here; only acquired market data.
type ObservationCache struct {
	db *sql.DB
}

// NewObservationCache opens (or creates) the cache database at path.
func NewObservationCache(path string) (*ObservationCache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	cache := &ObservationCache{db: db}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return cache, nil
}

func (c *ObservationCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		price TEXT NOT NULL,
		bid TEXT NOT NULL,
		ask TEXT NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, date)
	);
	CREATE INDEX IF NOT EXISTS idx_observations_symbol_date ON observations(symbol, date);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the cached observations for a symbol within [start, end],
// ordered by date.
func (c *ObservationCache) Get(ctx context.Context, symbol string, start, end time.Time) ([]models.Observation, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT date, price, bid, ask, volume
		FROM observations
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying cached observations: %w", err)
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		var (
			dateStr, priceStr, bidStr, askStr string
			volume                            int64
		)
		if err := rows.Scan(&dateStr, &priceStr, &bidStr, &askStr, &volume); err != nil {
			return nil, fmt.Errorf("scanning cached observation: %w", err)
		}

		day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing cached date %q: %w", dateStr, err)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("parsing cached price %q: %w", priceStr, err)
		}
		bid, err := decimal.NewFromString(bidStr)
		if err != nil {
			return nil, fmt.Errorf("parsing cached bid %q: %w", bidStr, err)
		}
		ask, err := decimal.NewFromString(askStr)
		if err != nil {
			return nil, fmt.Errorf("parsing cached ask %q: %w", askStr, err)
		}

		observations = append(observations, models.Observation{
			Symbol:    symbol,
			Timestamp: day,
			Price:     price,
			Bid:       bid,
			Ask:       ask,
			Volume:    volume,
		})
	}
	return observations, rows.Err()
}

// Put upserts observations into the cache.
func (c *ObservationCache) Put(ctx context.Context, symbol string, observations []models.Observation) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO observations (symbol, date, price, bid, ask, volume)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cache insert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		_, err := stmt.ExecContext(ctx,
			symbol,
			obs.Timestamp.Format("2006-01-02"),
			obs.Price.String(),
			obs.Bid.String(),
			obs.Ask.String(),
			obs.Volume)
		if err != nil {
			return fmt.Errorf("inserting cached observation: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (c *ObservationCache) Close() error {
	return c.db.Close()
}
