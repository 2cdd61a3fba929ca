package sqlbase

import (
	"regexp"
	"strings"
	"time"
)

// Dialect holds what differs between the SQL engines flowgate runs on.
// Queries are written with $N placeholders and rebound when needed.
type Dialect struct {
	Name            string
	MigrationsTable string
	positional      bool
}

var (
	Postgres = Dialect{
		Name: "postgres",
		MigrationsTable: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
		`,
	}

	SQLite = Dialect{
		Name: "sqlite",
		MigrationsTable: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
		positional: true,
	}
)

var numbered = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders into ? for engines that bind by position.
// Placeholders must appear in ascending order.
func (d Dialect) Rebind(query string) string {
	if !d.positional || !strings.Contains(query, "$") {
		return query
	}

	return numbered.ReplaceAllString(query, "?")
}

// textTime is fixed width so stored text sorts chronologically.
const textTime = "2006-01-02T15:04:05.000000000Z07:00"

// Time converts t into the value bound for a timestamp column. Engines
// without a native timestamp type get RFC 3339 text in UTC.
func (d Dialect) Time(t time.Time) any {
	if d.positional {
		return t.UTC().Format(textTime)
	}

	return t
}

// NullTime is Time for nullable columns.
func (d Dialect) NullTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return d.Time(*t)
}
