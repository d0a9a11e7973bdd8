package sqlstore

import (
	"fmt"
	"strings"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/zerr"
)

// dialect holds the statements that differ between database engines.
type dialect struct {
	name        string
	placeholder func(n int) string
	createTable string
	upsert      string
}

func question(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func dialectFor(driver, table string) (dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return dialect{
			name:        "sqlite",
			placeholder: question,
			createTable: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	setting_key TEXT PRIMARY KEY,
	type_name TEXT NOT NULL,
	value TEXT NOT NULL,
	default_value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (setting_key, type_name, value, default_value, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (setting_key) DO UPDATE SET
	type_name = excluded.type_name,
	value = excluded.value,
	default_value = excluded.default_value,
	updated_at = excluded.updated_at`, table),
		}, nil
	case "pgx", "postgres":
		return dialect{
			name:        "pgx",
			placeholder: dollar,
			createTable: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	setting_key TEXT PRIMARY KEY,
	type_name TEXT NOT NULL,
	value TEXT NOT NULL,
	default_value TEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (setting_key, type_name, value, default_value, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (setting_key) DO UPDATE SET
	type_name = EXCLUDED.type_name,
	value = EXCLUDED.value,
	default_value = EXCLUDED.default_value,
	updated_at = EXCLUDED.updated_at`, table),
		}, nil
	case "mysql":
		return dialect{
			name:        "mysql",
			placeholder: question,
			createTable: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	setting_key VARCHAR(255) NOT NULL PRIMARY KEY,
	type_name VARCHAR(255) NOT NULL,
	value LONGTEXT NOT NULL,
	default_value LONGTEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (setting_key, type_name, value, default_value, updated_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
	type_name = VALUES(type_name),
	value = VALUES(value),
	default_value = VALUES(default_value),
	updated_at = VALUES(updated_at)`, table),
		}, nil
	default:
		return dialect{}, zerr.With(zerr.Wrap(domain.ErrUnknownBackend, "unsupported sql driver"), "driver", driver)
	}
}

// validTable accepts plain identifiers only, since table names cannot be bound as parameters.
func validTable(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0
}
