// Package db stores fleets and the results of heatmap and joint runs in
// sqlite, with schema managed by embedded migrations.
package db

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/broadside/internal/fleet"
	"github.com/banshee-data/broadside/internal/monitoring"
)

// dsnPragmas are applied by the driver to every new connection.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// ErrNotFound is returned when a fleet or run ID has no row.
var ErrNotFound = errors.New("not found")

type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path without touching
// its schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{DB: sqlDB, path: path}, nil
}

// NewDB opens the database at path and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SaveFleet inserts or updates a fleet. A fleet without an ID is given one.
func (db *DB) SaveFleet(f *fleet.Fleet) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	specs, err := json.Marshal(f.Specs)
	if err != nil {
		return fmt.Errorf("encode specs: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO fleets (fleet_id, name, specs_json) VALUES (?, ?, ?)
		ON CONFLICT(fleet_id) DO UPDATE SET
			name = excluded.name,
			specs_json = excluded.specs_json,
			updated_at = strftime('%s', 'now')`,
		f.ID, f.Name, string(specs))
	if err != nil {
		return fmt.Errorf("insert fleet: %w", err)
	}
	return nil
}

// GetFleet loads one fleet by ID.
func (db *DB) GetFleet(id string) (*fleet.Fleet, error) {
	row := db.QueryRow(`SELECT fleet_id, name, specs_json FROM fleets WHERE fleet_id = ?`, id)
	f, err := scanFleet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fleet %s: %w", id, ErrNotFound)
	}
	return f, err
}

// ListFleets returns every fleet, oldest first.
func (db *DB) ListFleets() ([]*fleet.Fleet, error) {
	rows, err := db.Query(`SELECT fleet_id, name, specs_json FROM fleets ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query fleets: %w", err)
	}
	defer rows.Close()

	var out []*fleet.Fleet
	for rows.Next() {
		f, err := scanFleet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFleet removes a fleet. Runs that referenced it keep their results.
func (db *DB) DeleteFleet(id string) error {
	res, err := db.Exec(`DELETE FROM fleets WHERE fleet_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fleet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fleet %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFleet(s scanner) (*fleet.Fleet, error) {
	var (
		f     fleet.Fleet
		specs string
	)
	if err := s.Scan(&f.ID, &f.Name, &specs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(specs), &f.Specs); err != nil {
		return nil, fmt.Errorf("decode specs for fleet %s: %w", f.ID, err)
	}
	return &f, nil
}

// Run is one stored heatmap or joint search result.
type Run struct {
	RunID     string          `json:"run_id"`
	Kind      string          `json:"kind"` // "heatmap" or "joint"
	FleetID   string          `json:"fleet_id,omitempty"`
	Board     string          `json:"board"`
	Mode      string          `json:"mode"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated"`
	Reason    string          `json:"reason"`
	Heatmap   json.RawMessage `json:"heatmap,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
	CreatedAt time.Time       `json:"created_at"`
}

// Run kinds.
const (
	KindHeatmap = "heatmap"
	KindJoint   = "joint"
)

// RecordRun stores a run, assigning a run ID if it has none.
func (db *DB) RecordRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Reason == "" {
		r.Reason = "none"
	}
	var fleetID, heatmap interface{}
	if r.FleetID != "" {
		fleetID = r.FleetID
	}
	if len(r.Heatmap) > 0 {
		heatmap = string(r.Heatmap)
	}
	_, err := db.Exec(`
		INSERT INTO runs (run_id, kind, fleet_id, board_text, mode, total, truncated, reason, heatmap_json, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Kind, fleetID, r.Board, r.Mode, r.Total, r.Truncated, r.Reason, heatmap, r.ElapsedMs)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// defaults to 100.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT run_id, kind, fleet_id, board_text, mode, total, truncated, reason, heatmap_json, elapsed_ms, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRun loads one run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, kind, fleet_id, board_text, mode, total, truncated, reason, heatmap_json, elapsed_ms, created_at
		FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

func scanRun(s scanner) (*Run, error) {
	var (
		r         Run
		fleetID   sql.NullString
		heatmap   sql.NullString
		createdAt int64
	)
	if err := s.Scan(&r.RunID, &r.Kind, &fleetID, &r.Board, &r.Mode, &r.Total,
		&r.Truncated, &r.Reason, &heatmap, &r.ElapsedMs, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.FleetID = fleetID.String
	if heatmap.Valid {
		r.Heatmap = json.RawMessage(heatmap.String)
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

// AttachAdminRoutes mounts the tsweb debug index with a tailsql console
// and a backup download on mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Broadside DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.serveBackup))
	return nil
}

func (db *DB) serveBackup(w http.ResponseWriter, r *http.Request) {
	backupPath := filepath.Join(os.TempDir(), fmt.Sprintf("broadside-backup-%d.db", time.Now().UnixNano()))
	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			monitoring.Logf("Failed to remove backup file: %v", err)
		}
	}()

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", filepath.Base(backupPath)))
	w.Header().Set("Content-Type", "application/gzip")

	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, backupFile); err != nil {
		monitoring.Logf("Failed to write backup: %v", err)
	}
}
