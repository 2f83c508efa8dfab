// Package storage is the persistence gateway: a SQLite-backed
// repository for transaction records. Reconnect-on-failure lives here,
// not in the business logic; callers see each operation either succeed,
// or fail after one transparent retry against a fresh connection.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"spendbot/internal/core"
	"spendbot/internal/log"

	_ "modernc.org/sqlite"
)

// MergePolicy controls what happens to cost and category when an
// upsert merges into an existing record. Quantity always sums.
type MergePolicy string

const (
	// MergeKeepFirst keeps the stored cost/category (historical
	// first-write-wins behavior).
	MergeKeepFirst MergePolicy = "keep"
	// MergeLatest overwrites cost/category with the incoming values.
	MergeLatest MergePolicy = "latest"
)

// RawSelectRowCap bounds the rows returned by RawSelect.
const RawSelectRowCap = 10

// Column names are interpolated into UPDATE statements; anything that
// is not a plain identifier never gets that far.
var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Repository struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	policy MergePolicy
}

func NewRepository(dbPath string, policy MergePolicy) (*Repository, error) {
	if policy != MergeKeepFirst && policy != MergeLatest {
		return nil, fmt.Errorf("unknown merge policy %q", policy)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, path: dbPath, policy: policy}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Upsert inserts the candidate or, when a record with the same
// (owner, date, name) key exists, merges into it: quantity sums, and
// cost/category follow the merge policy. The find plus write runs in
// one transaction; a unique index on the key backs it up against
// concurrent upserts. Reports whether a merge occurred, for logging
// only.
func (r *Repository) Upsert(ctx context.Context, t core.Transaction) (merged bool, err error) {
	err = r.withRetry(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin upsert tx: %w", err)
		}
		defer tx.Rollback()

		var id, quantity int64
		row := tx.QueryRowContext(ctx,
			`SELECT id, quantity FROM transactions WHERE owner = ? AND date = ? AND name = ?`,
			t.Owner, t.Date.String(), t.Name)
		switch err := row.Scan(&id, &quantity); {
		case err == nil:
			merged = true
			if r.policy == MergeLatest {
				_, err = tx.ExecContext(ctx,
					`UPDATE transactions SET quantity = quantity + ?, cost_cents = ?, category = ? WHERE id = ?`,
					t.Quantity, t.Cost.Cents, string(t.Category), id)
			} else {
				_, err = tx.ExecContext(ctx,
					`UPDATE transactions SET quantity = quantity + ? WHERE id = ?`,
					t.Quantity, id)
			}
			if err != nil {
				return fmt.Errorf("merge quantity: %w", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			merged = false
			_, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (date, name, cost_cents, quantity, category, owner)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				t.Date.String(), t.Name, t.Cost.Cents, t.Quantity, string(t.Category), t.Owner)
			if err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		default:
			return fmt.Errorf("find existing transaction: %w", err)
		}

		return tx.Commit()
	})
	if err != nil {
		return false, err
	}

	fields := log.NewFields().
		WithComponent(log.ComponentStorage).
		WithTransaction(t.Name, t.Cost.Cents, t.Quantity, string(t.Category))
	fields[log.FieldOwner] = t.Owner
	fields["date"] = t.Date.String()
	fields["merged"] = merged
	slog.InfoContext(ctx, "Transaction upserted", fields.ToSlice()...)
	return merged, nil
}

// Insert creates a new record unconditionally and returns its id.
// Callers wanting merge semantics go through Upsert instead.
func (r *Repository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.withRetry(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`INSERT INTO transactions (date, name, cost_cents, quantity, category, owner)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.Date.String(), t.Name, t.Cost.Cents, t.Quantity, string(t.Category), t.Owner)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	return id, err
}

// IncrementQuantity adds delta to a record's stored quantity.
func (r *Repository) IncrementQuantity(ctx context.Context, id, delta int64) error {
	return r.withRetry(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`UPDATE transactions SET quantity = quantity + ? WHERE id = ?`, delta, id)
		if err != nil {
			return fmt.Errorf("increment quantity: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// FindByDateAndName returns the record with the given key, or nil when
// absent.
func (r *Repository) FindByDateAndName(ctx context.Context, owner string, date core.Date, name string) (*core.Transaction, error) {
	var found *core.Transaction
	err := r.withRetry(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT id, date, name, cost_cents, quantity, category, owner
			 FROM transactions WHERE owner = ? AND date = ? AND name = ?`,
			owner, date.String(), name)
		t, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			found = nil
			return nil
		}
		if err != nil {
			return err
		}
		found = &t
		return nil
	})
	return found, err
}

// DeleteByID removes the owner's record and reports whether it existed.
func (r *Repository) DeleteByID(ctx context.Context, owner string, id int64) (bool, error) {
	var deleted bool
	err := r.withRetry(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`DELETE FROM transactions WHERE owner = ? AND id = ?`, owner, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

// UpdateField writes one column of the owner's record. The value must
// already be coerced (core.CoerceField); dates and money convert to
// their stored forms here. Field names beyond the typed trio pass
// through to the store, which rejects unknown columns.
func (r *Repository) UpdateField(ctx context.Context, owner string, id int64, field string, value any) (bool, error) {
	column, stored, err := columnValue(field, value)
	if err != nil {
		return false, err
	}

	var updated bool
	err = r.withRetry(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE transactions SET %s = ? WHERE owner = ? AND id = ?`, column),
			stored, owner, id)
		if err != nil {
			if strings.Contains(err.Error(), "no such column") {
				return core.Errorf(core.KindValidation, "unknown field %q", field)
			}
			return fmt.Errorf("update %s: %w", column, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		updated = affected > 0
		return nil
	})
	return updated, err
}

// QueryRange returns the owner's records with start <= date < end,
// ordered by date then insertion.
func (r *Repository) QueryRange(ctx context.Context, owner string, start, end core.Date) ([]core.Transaction, error) {
	var records []core.Transaction
	err := r.withRetry(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT id, date, name, cost_cents, quantity, category, owner
			 FROM transactions
			 WHERE owner = ? AND date >= ? AND date < ?
			 ORDER BY date, id`,
			owner, start.String(), end.String())
		if err != nil {
			return fmt.Errorf("query range: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			records = append(records, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListOwners returns every distinct owner with at least one record.
func (r *Repository) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.withRetry(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT DISTINCT owner FROM transactions ORDER BY owner`)
		if err != nil {
			return fmt.Errorf("list owners: %w", err)
		}
		defer rows.Close()

		owners = owners[:0]
		for rows.Next() {
			var owner string
			if err := rows.Scan(&owner); err != nil {
				return err
			}
			owners = append(owners, owner)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}

// RawSelect executes a user-supplied statement after re-checking the
// SELECT prefix, and caps the result at RawSelectRowCap rows. The
// prefix check is a mandatory safety boundary: even though the parser
// rejects non-SELECT text, nothing else may ever reach execution.
func (r *Repository) RawSelect(ctx context.Context, query string) (columns []string, results [][]string, err error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < len("select") || !strings.EqualFold(trimmed[:len("select")], "select") {
		return nil, nil, core.ErrNotSelect
	}

	err = r.withRetry(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, trimmed)
		if err != nil {
			return core.Errorf(core.KindValidation, "query failed: %v", err)
		}
		defer rows.Close()

		columns, err = rows.Columns()
		if err != nil {
			return fmt.Errorf("columns: %w", err)
		}

		results = results[:0]
		for rows.Next() && len(results) < RawSelectRowCap {
			raw := make([]sql.NullString, len(columns))
			dest := make([]any, len(columns))
			for i := range raw {
				dest[i] = &raw[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			row := make([]string, len(columns))
			for i, v := range raw {
				row[i] = v.String
			}
			results = append(results, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return columns, results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		rawDate string
	)
	if err := row.Scan(&t.ID, &rawDate, &t.Name, &t.Cost.Cents, &t.Quantity, &t.Category, &t.Owner); err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseStoredDate(rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date: %w", err)
	}
	t.Date = date
	return t, nil
}

// columnValue maps a coerced field value to its column name and stored
// representation.
func columnValue(field string, value any) (string, any, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if !identifierRe.MatchString(field) {
		return "", nil, core.Errorf(core.KindValidation, "invalid field name %q", field)
	}
	switch v := value.(type) {
	case core.Date:
		return "date", v.String(), nil
	case core.Money:
		return "cost_cents", v.Cents, nil
	case int64:
		return field, v, nil
	case string:
		return field, v, nil
	default:
		return "", nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// withRetry runs op and, when it fails on a stale connection, reopens
// the database and retries exactly once.
func (r *Repository) withRetry(ctx context.Context, op func(*sql.DB) error) error {
	r.mu.Lock()
	db := r.db
	r.mu.Unlock()

	err := op(db)
	if err == nil || !isConnectionError(err) {
		return err
	}

	slog.WarnContext(ctx, "Storage connection lost, reconnecting",
		log.FieldComponent, log.ComponentStorage,
		log.FieldError, err.Error())
	if rerr := r.reconnect(ctx); rerr != nil {
		return fmt.Errorf("%w: %v", core.ErrUnavailable, rerr)
	}

	r.mu.Lock()
	db = r.db
	r.mu.Unlock()
	if err := op(db); err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
		}
		return err
	}
	return nil
}

func (r *Repository) reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		r.db.Close()
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return fmt.Errorf("reopen database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	r.db = db
	slog.InfoContext(ctx, "Storage reconnected",
		log.FieldComponent, log.ComponentStorage,
		"path", r.path)
	return nil
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") || strings.Contains(msg, "bad connection")
}
