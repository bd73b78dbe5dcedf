package recipe

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// dialect holds the engine-specific SQL fragments. Queries are written with
// '?' placeholders and rebound by sqlx, so fragments must not contain a
// literal question mark.
type dialect struct {
	name   string
	schema []string
	// calories extracts nutrients.calories as a number, tolerating a "kcal"
	// suffix and spaces inside the stored value.
	calories string
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cuisine TEXT NOT NULL,
			title TEXT NOT NULL,
			rating REAL CHECK (rating BETWEEN 0 AND 5),
			prep_time INTEGER CHECK (prep_time >= 0),
			cook_time INTEGER CHECK (cook_time >= 0),
			total_time INTEGER CHECK (total_time >= 0),
			description TEXT,
			nutrients TEXT,
			serves TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_rating ON recipes (rating)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_nutrients_cal ON recipes (json_extract(nutrients, '$.calories'))`,
	},
	calories: `CAST(REPLACE(REPLACE(json_extract(nutrients, '$.calories'), 'kcal', ''), ' ', '') AS REAL)`,
}

var postgresDialect = dialect{
	name: DriverPostgres,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			id BIGSERIAL PRIMARY KEY,
			cuisine TEXT NOT NULL,
			title TEXT NOT NULL,
			rating DOUBLE PRECISION CHECK (rating BETWEEN 0 AND 5),
			prep_time BIGINT CHECK (prep_time >= 0),
			cook_time BIGINT CHECK (cook_time >= 0),
			total_time BIGINT CHECK (total_time >= 0),
			description TEXT,
			nutrients TEXT,
			serves TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_rating ON recipes (rating)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_nutrients_cal ON recipes (((nutrients::json) ->> 'calories'))`,
	},
	// Non-numeric leftovers become NULL instead of failing the cast.
	calories: `(CASE WHEN REPLACE(REPLACE((nutrients::json) ->> 'calories', 'kcal', ''), ' ', '') ~ '^-{0,1}[0-9]+([.][0-9]+){0,1}$'
		THEN REPLACE(REPLACE((nutrients::json) ->> 'calories', 'kcal', ''), ' ', '')::double precision END)`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
