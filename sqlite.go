package measure

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// WithSQLite attaches a SQLite database at path. Definitions stored there
// are loaded into r, and every later Define is written back.
func (r *Registry) WithSQLite(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return err
	}
	stored, err := loadDefinitions(db)
	if err != nil {
		db.Close()
		return err
	}
	for _, d := range stored {
		if existing, ok := r.lookup(d.Name); ok && sameDefinition(existing, d) {
			continue
		}
		if err := r.Define(d); err != nil {
			db.Close()
			return fmt.Errorf("load stored definition %s: %w", d.Name, err)
		}
	}

	r.mutex.Lock()
	if r.db != nil {
		r.db.Close()
	}
	r.db = db
	r.mutex.Unlock()
	r.logger.Info("unit database attached", "path", path, "definitions", len(stored))
	return nil
}

func initSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS definitions (
			name TEXT PRIMARY KEY,
			symbol TEXT,
			aliases TEXT,
			category TEXT,
			scale REAL,
			expr TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func persistDefinition(db *sql.DB, d Definition) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO definitions (name, symbol, aliases, category, scale, expr) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Name, d.Symbol, strings.Join(d.Aliases, ","), d.Category, d.Scale, d.Expr)
	return err
}

func loadDefinitions(db *sql.DB) ([]Definition, error) {
	rows, err := db.Query(`SELECT name, symbol, aliases, category, scale, expr FROM definitions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var d Definition
		var aliases string
		if err := rows.Scan(&d.Name, &d.Symbol, &aliases, &d.Category, &d.Scale, &d.Expr); err != nil {
			return nil, err
		}
		if aliases != "" {
			d.Aliases = strings.Split(aliases, ",")
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func sameDefinition(a, b Definition) bool {
	return a.Name == b.Name && a.Symbol == b.Symbol && a.Category == b.Category &&
		a.Scale == b.Scale && a.Expr == b.Expr &&
		strings.Join(a.Aliases, ",") == strings.Join(b.Aliases, ",")
}
