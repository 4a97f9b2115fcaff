package levels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/SmartManoj/ARC-AGI-3-Engine/internal/game"
)

// DirProvider reads levels from a directory tree:
//
//	<root>/<game_id>/metadata.json           optional {"title"|"name"}
//	<root>/<game_id>/rules.yaml              optional rule descriptor
//	<root>/<game_id>/level_N/initial.json    {"grid": [[...]], "title": ...}
//	<root>/<game_id>/level_N/final.json      optional {"grid": [[...]]}
//
// Files are read on every call; wrap it in a Cache for repeated lookups.
type DirProvider struct {
	Root string
}

// NewDirProvider creates a provider rooted at root.
func NewDirProvider(root string) *DirProvider {
	return &DirProvider{Root: root}
}

// levelFile is the shape of initial.json / final.json.
type levelFile struct {
	Grid        [][]int `json:"grid"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
}

type metadataFile struct {
	Title string `json:"title"`
	Name  string `json:"name"`
}

// ListGames returns one entry per game directory, sorted by id.
// A missing root yields an empty list.
func (d *DirProvider) ListGames(ctx context.Context) ([]game.Info, error) {
	entries, err := os.ReadDir(d.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return []game.Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.Root, err)
	}

	games := []game.Info{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		games = append(games, game.Info{GameID: e.Name(), Title: d.title(ctx, e.Name())})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].GameID < games[j].GameID })
	return games, nil
}

// title resolves metadata.json, then the first level's title, then a
// title derived from the id.
func (d *DirProvider) title(ctx context.Context, gameID string) string {
	var meta metadataFile
	if ok, err := readJSON(filepath.Join(d.Root, gameID, "metadata.json"), &meta); ok && err == nil {
		if meta.Title != "" {
			return meta.Title
		}
		if meta.Name != "" {
			return meta.Name
		}
	}
	if levels, err := d.Levels(ctx, gameID); err == nil && len(levels) > 0 {
		var lf levelFile
		if ok, err := readJSON(filepath.Join(d.Root, gameID, levels[0], "initial.json"), &lf); ok && err == nil && lf.Title != "" {
			return lf.Title
		}
	}
	return defaultTitle(gameID)
}

// Levels lists the level_* directories of a game in lexical order.
func (d *DirProvider) Levels(ctx context.Context, gameID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.Root, gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "level_") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// InitialGrid loads <game>/<level>/initial.json.
func (d *DirProvider) InitialGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	return d.grid(gameID, level, "initial.json")
}

// FinalGrid loads <game>/<level>/final.json. A level without an initial
// grid has no final grid either.
func (d *DirProvider) FinalGrid(ctx context.Context, gameID, level string) (game.Grid, bool, error) {
	if _, ok, _ := d.grid(gameID, level, "initial.json"); !ok {
		return game.Grid{}, false, nil
	}
	return d.grid(gameID, level, "final.json")
}

// Rule loads and compiles <game>/rules.yaml. A descriptor that does not
// compile is logged and treated as absent.
func (d *DirProvider) Rule(ctx context.Context, gameID string) (*game.ToggleRule, bool, error) {
	data, ok, err := d.RuleSource(ctx, gameID)
	if err != nil || !ok {
		return nil, false, err
	}
	rule, err := ParseRule(data)
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Join(d.Root, gameID, RuleFile)).Msg("skipping rule descriptor")
		return nil, false, nil
	}
	return rule, true, nil
}

// RuleSource returns the raw descriptor bytes, if the game has one.
func (d *DirProvider) RuleSource(ctx context.Context, gameID string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, gameID, RuleFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// grid loads one level file. Unreadable or malformed files are logged and
// treated as absent.
func (d *DirProvider) grid(gameID, level, name string) (game.Grid, bool, error) {
	path := filepath.Join(d.Root, gameID, level, name)
	var lf levelFile
	ok, err := readJSON(path, &lf)
	if !ok {
		return game.Grid{}, false, nil
	}
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("skipping level file")
		return game.Grid{}, false, nil
	}
	if len(lf.Grid) == 0 {
		return game.Grid{}, false, nil
	}
	g, err := game.NewGrid(lf.Grid)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("skipping level file")
		return game.Grid{}, false, nil
	}
	return g, true, nil
}

// readJSON decodes path into v. ok is false when the file does not exist.
func readJSON(path string, v any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
