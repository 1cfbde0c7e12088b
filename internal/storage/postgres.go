package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/san-kum/ecodash/internal/observe"
)

const createObservations = `CREATE TABLE IF NOT EXISTS observations (
	run_id      TEXT             NOT NULL,
	year        INTEGER          NOT NULL,
	column_name TEXT             NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, year, column_name)
)`

const deleteRun = `DELETE FROM observations WHERE run_id = $1`

// OpenPostgres opens a lib/pq connection and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, createObservations)
	return err
}

// MaxBatchRows keeps one INSERT within PostgreSQL's 65535 bind parameters.
const MaxBatchRows = 65535 / 4

// Batch is one multi-row INSERT and its positional arguments.
type Batch struct {
	Stmt string
	Args []interface{}
}

// Rows is the number of observations the batch inserts.
func (b Batch) Rows() int {
	return len(b.Args) / 4
}

// Upload replaces every row stored for runID with the table contents.
// The table is written in long form, one row per (year, column), in
// batches of at most MaxBatchRows inside a single transaction.
func Upload(ctx context.Context, db *sql.DB, runID string, tbl *observe.Table) (int, error) {
	batches := BuildInserts(runID, tbl, MaxBatchRows)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteRun, runID); err != nil {
		return 0, err
	}
	n := 0
	for i, b := range batches {
		if _, err := tx.ExecContext(ctx, b.Stmt, b.Args...); err != nil {
			return 0, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		n += b.Rows()
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// BuildInserts splits the table into INSERT statements of at most maxRows
// observations each. maxRows outside 1..MaxBatchRows means MaxBatchRows.
func BuildInserts(runID string, tbl *observe.Table, maxRows int) []Batch {
	if maxRows <= 0 || maxRows > MaxBatchRows {
		maxRows = MaxBatchRows
	}
	columns := tbl.Columns()[1:]

	var batches []Batch
	valueStrings := make([]string, 0, maxRows)
	valueArgs := make([]interface{}, 0, maxRows*4)

	flush := func() {
		if len(valueStrings) == 0 {
			return
		}
		stmt := fmt.Sprintf(
			"INSERT INTO observations (run_id, year, column_name, value) VALUES %s",
			strings.Join(valueStrings, ","))
		batches = append(batches, Batch{Stmt: stmt, Args: valueArgs})
		valueStrings = make([]string, 0, maxRows)
		valueArgs = make([]interface{}, 0, maxRows*4)
	}

	for _, r := range tbl.Rows() {
		for _, name := range columns {
			v := r.Temperature
			if name != observe.ColumnTemperature {
				v = r.Populations[name]
			}
			i := len(valueStrings)
			valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
			valueArgs = append(valueArgs, runID, r.Year, name, v)
			if len(valueStrings) == maxRows {
				flush()
			}
		}
	}
	flush()
	return batches
}
