package engine

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// CacheDir is where relative persistence paths land when it exists (the container volume).
var CacheDir = "/cache_logs"

var ErrSnapshotMismatch = errors.New("tt snapshot does not match table geometry")

type ttSnapshot struct {
	Size    int
	Buckets int
	Entries []TTEntry
}

func countValidTTEntries(entries []TTEntry) int {
	count := 0
	for _, entry := range entries {
		if entry.Valid {
			count++
		}
	}
	return count
}

// ResolvePersistencePath keeps absolute paths and maps relative ones into CacheDir when
// that directory exists.
func ResolvePersistencePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if stat, err := os.Stat(CacheDir); err == nil && stat.IsDir() {
		return filepath.Join(CacheDir, path)
	}
	return path
}

// SaveTable writes a gob snapshot of tt to path.
func SaveTable(path string, tt *TranspositionTable) error {
	if tt == nil {
		return errors.New("nil transposition table")
	}
	path = ResolvePersistencePath(path)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tt persistence dir %s: %w", dir, err)
		}
	}
	entries := tt.snapshotEntries()
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tt persistence %s: %w", path, err)
	}
	defer file.Close()
	snapshot := ttSnapshot{
		Size:    tt.Size(),
		Buckets: tt.Buckets(),
		Entries: entries,
	}
	if err := gob.NewEncoder(file).Encode(&snapshot); err != nil {
		return fmt.Errorf("encode tt persistence %s: %w", path, err)
	}
	log.Info().
		Str("component", "ai:cache").
		Str("path", path).
		Int("valid", countValidTTEntries(entries)).
		Int("total", len(entries)).
		Msg("stored tt persistence")
	return nil
}

// LoadTable restores a snapshot into a new table with the given geometry. A missing or
// truncated file yields (nil, nil) so callers start with an empty cache.
func LoadTable(path string, size int, buckets int) (*TranspositionTable, error) {
	path = ResolvePersistencePath(path)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("component", "ai:cache").Str("path", path).Msg("no tt persistence found")
			return nil, nil
		}
		return nil, fmt.Errorf("open tt persistence %s: %w", path, err)
	}
	defer file.Close()

	var snapshot ttSnapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		if isEOFError(err) {
			log.Warn().Str("component", "ai:cache").Str("path", path).Msg("truncated tt persistence ignored")
			return nil, nil
		}
		return nil, fmt.Errorf("decode tt persistence %s: %w", path, err)
	}
	want := NewTranspositionTable(uint64(size), buckets)
	if snapshot.Size != want.Size() || snapshot.Buckets != want.Buckets() {
		return nil, fmt.Errorf("%w: snapshot %d/%d, config %d/%d",
			ErrSnapshotMismatch, snapshot.Size, snapshot.Buckets, want.Size(), want.Buckets())
	}
	// generations restart at 1 in a fresh table
	for i := range snapshot.Entries {
		if snapshot.Entries[i].Valid {
			snapshot.Entries[i].GenWritten = 1
			snapshot.Entries[i].GenLastUsed = 1
		}
	}
	want.loadEntries(snapshot.Entries)
	log.Info().
		Str("component", "ai:cache").
		Str("path", path).
		Int("valid", countValidTTEntries(snapshot.Entries)).
		Int("total", len(snapshot.Entries)).
		Msg("restored tt persistence")
	return want, nil
}

func isEOFError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
