// Package database persists completed trades to postgres.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tantralabs/zdte/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id text PRIMARY KEY,
	symbol text NOT NULL,
	side text NOT NULL,
	strike double precision NOT NULL,
	quantity integer NOT NULL,
	pnl double precision NOT NULL,
	entry_time timestamptz NOT NULL,
	exit_time timestamptz NOT NULL
);`

// Ledger is a postgres-backed sink for trade records.
type Ledger struct {
	db *sqlx.DB
}

func Connect(dsn string) (*Ledger, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to trade ledger: %v", err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trades table: %v", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) InsertTrade(trade models.TradeRecord) error {
	_, err := l.db.NamedExec(`INSERT INTO trades
		(id, symbol, side, strike, quantity, pnl, entry_time, exit_time)
		VALUES (:id, :symbol, :side, :strike, :quantity, :pnl, :entry_time, :exit_time)`, trade)
	if err != nil {
		return fmt.Errorf("inserting trade %v: %v", trade.ID, err)
	}
	return nil
}

func (l *Ledger) Trades(limit int) ([]models.TradeRecord, error) {
	trades := []models.TradeRecord{}
	err := l.db.Select(&trades, "SELECT * FROM trades ORDER BY exit_time DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("loading trades: %v", err)
	}
	return trades, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
