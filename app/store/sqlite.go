package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// sqliteJob is a row of the jobs table. Languages kept as json array text.
type sqliteJob struct {
	Company    string         `db:"company"`
	Position   string         `db:"position"`
	Logo       sql.NullString `db:"logo"`
	IsNew      bool           `db:"is_new"`
	IsFeatured bool           `db:"is_featured"`
	Languages  sql.NullString `db:"languages"`
}

// readSQLite reads records from the jobs table of sqlite database, opened read-only.
// Rows returned in insertion (rowid) order.
func readSQLite(ctx context.Context, path string) ([]JobRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("can't access database: %w", err)
	}

	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close database: %v", closeErr)
		}
	}()

	rows := []sqliteJob{}
	err = db.SelectContext(ctx, &rows,
		`SELECT company, position, logo, is_new, is_featured, languages FROM jobs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query jobs: %v", ErrMalformed, err)
	}

	records := make([]JobRecord, 0, len(rows))
	for i, row := range rows {
		rec := JobRecord{
			Company:    row.Company,
			Position:   row.Position,
			Logo:       row.Logo.String,
			IsNew:      row.IsNew,
			IsFeatured: row.IsFeatured,
		}
		if row.Languages.Valid && row.Languages.String != "" {
			if err := json.Unmarshal([]byte(row.Languages.String), &rec.Languages); err != nil {
				return nil, fmt.Errorf("%w: invalid languages in row %d: %v", ErrMalformed, i+1, err)
			}
		}
		records = append(records, rec)
	}
	return validate(records)
}
