package repository

import (
	"database/sql"
	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("projectmanager/internal/repository")

//go:embed schema.sql
var schema string

// Open opens the sqlite database at path and initializes the schema.
// Foreign keys are enabled so that deleting a project cascades to its tasks
// inside the same statement.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
