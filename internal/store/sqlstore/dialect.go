package sqlstore

import (
	"strconv"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name       string
	driverName string
	idColumn   string
	numeric    string
	timestamp  string
	date       string
	positional bool
	// bootstrap runs once after connecting.
	bootstrap []string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:       DriverSQLite,
		driverName: "sqlite",
		idColumn:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		numeric:    "TEXT",
		timestamp:  "TEXT",
		date:       "TEXT",
		bootstrap: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
	},
	DriverPostgres: {
		name:       DriverPostgres,
		driverName: "postgres",
		idColumn:   "BIGSERIAL PRIMARY KEY",
		numeric:    "NUMERIC",
		timestamp:  "TIMESTAMPTZ",
		date:       "DATE",
		positional: true,
	},
}

// rebind rewrites ? placeholders to $1..$n for dialects that need it.
// Queries in this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// expand fills the column type placeholders of a schema statement.
func (d dialect) expand(stmt string) string {
	return strings.NewReplacer(
		"{{ID}}", d.idColumn,
		"{{NUMERIC}}", d.numeric,
		"{{TIMESTAMP}}", d.timestamp,
		"{{DATE}}", d.date,
	).Replace(stmt)
}
