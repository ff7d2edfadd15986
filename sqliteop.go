package krylovschur

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const tableEntries = "entries"

// Entry is one nonzero of a sparse operator, in coordinate form.
type Entry struct {
	I, J int
	V    float64
}

// SQLiteOperator is an out-of-core sparse Operator backed by SQLite, for
// the case named in the purpose section: A may be huge, sparse, or
// implicit. Matrix-vector products are computed by streaming the
// nonzero entries off disk rather than holding A in memory, the same
// trade the teacher's DiskMatrix makes for COO storage.
type SQLiteOperator struct {
	db   *sql.DB
	path string
	n    int
}

// NewSQLiteOperator creates a fresh SQLite-backed operator of dimension
// n at path, populated with entries. Duplicate (I, J) pairs overwrite
// rather than accumulate.
func NewSQLiteOperator(path string, n int, entries []Entry) (*SQLiteOperator, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, wrapError(NumericalFailure, err, "opening sqlite db")
	}
	op := &SQLiteOperator{db: db, path: path, n: n}
	if err := op.prepare(entries); err != nil {
		db.Close()
		return nil, err
	}
	return op, nil
}

func (op *SQLiteOperator) prepare(entries []Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()

	sqlStr := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableEntries)
	if _, err := op.db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE %s (i INTEGER, j INTEGER, v REAL, PRIMARY KEY (i, j)) STRICT`, tableEntries)
	if _, err := op.db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}

	tx, err := op.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`INSERT OR REPLACE INTO %s (i, j, v) VALUES (?, ?, ?)`, tableEntries)
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "")
	}
	for _, e := range entries {
		if e.V == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.I, e.J, e.V); err != nil {
			stmt.Close()
			tx.Rollback()
			return errors.Wrap(err, "")
		}
	}
	stmt.Close()
	return errors.Wrap(tx.Commit(), "")
}

func (op *SQLiteOperator) Dim() int { return op.n }

// Apply computes dst = A*x by streaming all nonzero entries off disk in
// a single query per call, accumulating into dst; the query is not
// split into row windows. x must not alias dst.
func (op *SQLiteOperator) Apply(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT i, j, v FROM %s ORDER BY i`, tableEntries)
	rows, err := op.db.QueryContext(ctx, sqlStr)
	if err != nil {
		panic(fmt.Sprintf("%+v", wrapError(NumericalFailure, err, "querying sqlite operator")))
	}
	defer rows.Close()

	for rows.Next() {
		var i, j int
		var v float64
		if err := rows.Scan(&i, &j, &v); err != nil {
			panic(fmt.Sprintf("%+v", wrapError(NumericalFailure, err, "scanning sqlite operator row")))
		}
		dst[i] += v * x[j]
	}
	if err := rows.Err(); err != nil {
		panic(fmt.Sprintf("%+v", wrapError(NumericalFailure, err, "iterating sqlite operator rows")))
	}
}

// Close releases the underlying database handle. It does not remove the
// backing file; callers that created a temporary path are responsible
// for cleanup, as with the teacher's DiskMatrix.Close.
func (op *SQLiteOperator) Close() error {
	return op.db.Close()
}
