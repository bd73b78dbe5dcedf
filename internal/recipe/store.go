package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a recipe id does not exist.
var ErrNotFound = errors.New("recipe not found")

// Store defines the interface for recipe data operations.
type Store interface {
	Import(ctx context.Context, rows []Row) (int, error)
	List(ctx context.Context, minCalories *float64, p Pagination) (*ListPage, error)
	ListByRating(ctx context.Context, p Pagination) (*RatedPage, error)
	Search(ctx context.Context, f Filters, p Pagination) (*SearchPage, error)
	Get(ctx context.Context, id int64) (*Recipe, error)
	Ping(ctx context.Context) error
}

// SQLStore implements Store on top of SQLite or PostgreSQL.
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
}

const insertRecipe = `INSERT INTO recipes
	(cuisine, title, rating, prep_time, cook_time, total_time, description, nutrients, serves)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Open connects to the database and creates the recipes table and its
// indexes if they are missing.
func Open(ctx context.Context, driver, dataSourceName string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection serializes access to the file.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create recipes schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Import inserts rows in a single transaction. Either every row is committed
// or none is, in which case the returned count is 0.
func (s *SQLStore) Import(ctx context.Context, rows []Row) (n int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		if err != nil {
			n = 0
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertRecipe))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Args()...); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(rows), nil
}

// List returns recipes newest first, optionally keeping only those with at
// least minCalories.
func (s *SQLStore) List(ctx context.Context, minCalories *float64, p Pagination) (*ListPage, error) {
	var pred Predicate
	if minCalories != nil {
		pred.add(s.dialect.calories+" >= CAST(? AS DOUBLE PRECISION)", *minCalories)
	}

	query := fmt.Sprintf(`SELECT id, title, cuisine, rating, total_time, %s AS calories
		FROM recipes %s
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, s.dialect.calories, pred.Where())
	args := append(pred.Args, p.Limit, p.Offset())

	items := []ListItem{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return &ListPage{Page: p.Page, Limit: p.Limit, Count: len(items), Data: items}, nil
}

// ListByRating returns all recipes ordered by rating, highest first.
func (s *SQLStore) ListByRating(ctx context.Context, p Pagination) (*RatedPage, error) {
	total, err := s.count(ctx, Predicate{})
	if err != nil {
		return nil, err
	}

	query := `SELECT id, title, cuisine, rating, total_time
		FROM recipes
		ORDER BY rating DESC NULLS LAST, id DESC
		LIMIT ? OFFSET ?`

	items := []RatedItem{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), p.Limit, p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list recipes by rating: %w", err)
	}
	return &RatedPage{Page: p.Page, Limit: p.Limit, Total: total, Data: items}, nil
}

// Search returns the recipes matching f. The count and the page are read by
// two separate queries, so total is advisory under concurrent imports.
func (s *SQLStore) Search(ctx context.Context, f Filters, p Pagination) (*SearchPage, error) {
	pred := BuildPredicate(f, s.dialect)

	total, err := s.count(ctx, pred)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, title, cuisine, rating, prep_time, cook_time, total_time,
			description, nutrients, %s AS calories
		FROM recipes %s
		ORDER BY rating DESC NULLS LAST, id DESC
		LIMIT ? OFFSET ?`, s.dialect.calories, pred.Where())
	args := append(pred.Args, p.Limit, p.Offset())

	items := []SearchItem{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return &SearchPage{Page: p.Page, Limit: p.Limit, Total: total, Data: items}, nil
}

// Get retrieves a recipe by its id.
func (s *SQLStore) Get(ctx context.Context, id int64) (*Recipe, error) {
	query := fmt.Sprintf(`SELECT id, cuisine, title, rating, prep_time, cook_time, total_time,
			description, nutrients, serves, %s AS calories
		FROM recipes WHERE id = ?`, s.dialect.calories)

	var r Recipe
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return &r, nil
}

func (s *SQLStore) count(ctx context.Context, pred Predicate) (int64, error) {
	var total int64
	query := "SELECT COUNT(*) FROM recipes " + pred.Where()
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(query), pred.Args...); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return total, nil
}
