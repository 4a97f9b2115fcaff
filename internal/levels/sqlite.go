// internal/levels/sqlite.go
//
// SQLite-backed level catalog.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Serving games, grids and rule descriptors to the engine.
//   - Importing a directory tree into the catalog.

package levels

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/SmartManoj/ARC-AGI-3-Engine/assets"
	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// SQLiteProvider serves levels stored in a SQLite catalog.
type SQLiteProvider struct {
	db *sql.DB
}

// OpenSQLite opens (creating if missing) the catalog at dsn and migrates it.
func OpenSQLite(dsn string) (*SQLiteProvider, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteProvider{db: db}, nil
}

// Close releases the database handle.
func (p *SQLiteProvider) Close() error { return p.db.Close() }

/**
 * openDB opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/levels.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * migrate applies *.sql files from fsys in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs in its own transaction together with its _migrations row.
 */
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

/* ----------------------------- Provider ------------------------------- */

func (p *SQLiteProvider) ListGames(ctx context.Context) ([]game.Info, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT game_id, title FROM games ORDER BY game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.Info{}
	for rows.Next() {
		var g game.Info
		if err := rows.Scan(&g.GameID, &g.Title); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (p *SQLiteProvider) InitialGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	return p.grid(ctx, `SELECT initial_grid FROM levels WHERE game_id=? AND level=?`, gameID, level)
}

func (p *SQLiteProvider) FinalGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	return p.grid(ctx, `SELECT final_grid FROM levels WHERE game_id=? AND level=?`, gameID, level)
}

func (p *SQLiteProvider) Rule(ctx context.Context, gameID string) (*game.ToggleRule, bool, error) {
	var descriptor string
	err := p.db.QueryRowContext(ctx, `SELECT descriptor FROM rules WHERE game_id=?`, gameID).Scan(&descriptor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rule, err := ParseRule([]byte(descriptor))
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("skipping rule descriptor")
		return nil, false, nil
	}
	return rule, true, nil
}

func (p *SQLiteProvider) grid(ctx context.Context, query, gameID, level string) (game.Grid, bool, error) {
	var raw sql.NullString
	err := p.db.QueryRowContext(ctx, query, gameID, level).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return game.Grid{}, false, nil
	}
	if err != nil {
		return game.Grid{}, false, err
	}
	var rows [][]int
	if err := json.Unmarshal([]byte(raw.String), &rows); err != nil {
		return game.Grid{}, false, fmt.Errorf("decode grid %s/%s: %w", gameID, level, err)
	}
	g, err := game.NewGrid(rows)
	if err != nil {
		return game.Grid{}, false, fmt.Errorf("grid %s/%s: %w", gameID, level, err)
	}
	return g, true, nil
}

/* ------------------------------ Import -------------------------------- */

// ImportStats counts what Import wrote.
type ImportStats struct {
	Games  int
	Levels int
	Rules  int
}

/**
 * Import copies every game of src into the catalog in one transaction.
 *
 * - Existing rows for the same game/level are replaced.
 * - Rule descriptors are validated before they are stored.
 * - Levels without an initial grid are skipped.
 */
func (p *SQLiteProvider) Import(ctx context.Context, src Source) (ImportStats, error) {
	var stats ImportStats
	games, err := src.ListGames(ctx)
	if err != nil {
		return stats, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range games {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO games (game_id, title) VALUES (?, ?)
			 ON CONFLICT(game_id) DO UPDATE SET title=excluded.title`, g.GameID, g.Title); err != nil {
			return stats, fmt.Errorf("insert game %s: %w", g.GameID, err)
		}
		stats.Games++

		levels, err := src.Levels(ctx, g.GameID)
		if err != nil {
			return stats, err
		}
		for _, lvl := range levels {
			initial, ok, err := src.InitialGrid(ctx, g.GameID, lvl)
			if err != nil {
				return stats, err
			}
			if !ok {
				log.Warn().Str("game", g.GameID).Str("level", lvl).Msg("no initial grid, skipped")
				continue
			}
			var final sql.NullString
			if fg, ok, err := src.FinalGrid(ctx, g.GameID, lvl); err != nil {
				return stats, err
			} else if ok {
				final = sql.NullString{String: encodeGrid(&fg), Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO levels (game_id, level, initial_grid, final_grid) VALUES (?, ?, ?, ?)`,
				g.GameID, lvl, encodeGrid(&initial), final); err != nil {
				return stats, fmt.Errorf("insert level %s/%s: %w", g.GameID, lvl, err)
			}
			stats.Levels++
		}

		data, ok, err := src.RuleSource(ctx, g.GameID)
		if err != nil {
			return stats, err
		}
		if ok {
			if _, err := ParseRule(data); err != nil {
				return stats, fmt.Errorf("rule for %s: %w", g.GameID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO rules (game_id, descriptor) VALUES (?, ?)`,
				g.GameID, strings.TrimSpace(string(data))); err != nil {
				return stats, fmt.Errorf("insert rule %s: %w", g.GameID, err)
			}
			stats.Rules++
		}
	}
	return stats, tx.Commit()
}

func encodeGrid(g *game.Grid) string {
	b, _ := json.Marshal(g.Rows())
	return string(b)
}
