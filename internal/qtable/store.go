package qtable

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

const schemaVersion = "qtable_v1"

var (
	// ErrNoCheckpoint is returned by Load when the checkpoint file does not exist
	ErrNoCheckpoint = errors.New("qtable: no checkpoint")

	// ErrSchema is returned by Load when the checkpoint was written for a
	// different schema, state variant or action catalog
	ErrSchema = errors.New("qtable: checkpoint schema mismatch")
)

// Row is one persisted table entry
type Row struct {
	Progress int32   `parquet:"progress"`
	Lives    int32   `parquet:"lives"`
	Major    int32   `parquet:"world_major"`
	Minor    int32   `parquet:"world_minor"`
	Action   int32   `parquet:"action"`
	Value    float64 `parquet:"value"`
}

// Meta describes what a checkpoint's keys mean. A checkpoint only loads
// into a run configured the same way.
type Meta struct {
	StateVariant string
	Catalog      string
	NumActions   int
}

// Rows returns every entry as rows sorted by key
func (t *Table) Rows() []Row {
	snap := t.Snapshot()
	rows := make([]Row, 0, len(snap))
	for k, v := range snap {
		rows = append(rows, Row{
			Progress: int32(k.State.Progress),
			Lives:    int32(k.State.Lives),
			Major:    int32(k.State.Major),
			Minor:    int32(k.State.Minor),
			Action:   int32(k.Action),
			Value:    v,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Major != b.Major {
			return a.Major < b.Major
		}
		if a.Minor != b.Minor {
			return a.Minor < b.Minor
		}
		if a.Progress != b.Progress {
			return a.Progress < b.Progress
		}
		if a.Lives != b.Lives {
			return a.Lives < b.Lives
		}
		return a.Action < b.Action
	})
	return rows
}

// Save writes the whole table to path. The file is written next to its
// destination and renamed over it, so readers never observe a partial
// checkpoint.
func (t *Table) Save(path string, meta Meta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, t.Rows(),
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaVersion),
		parquet.KeyValueMetadata("state_variant", meta.StateVariant),
		parquet.KeyValueMetadata("catalog", meta.Catalog),
		parquet.KeyValueMetadata("actions", strconv.Itoa(meta.NumActions)),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// Load reads a checkpoint written by Save. The checkpoint's metadata must
// match meta.
func Load(path string, meta Meta) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCheckpoint, path)
		}
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	if err := checkMeta(pf, meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	t := New(meta.NumActions)
	buf := make([]Row, 1024)
	for {
		n, readErr := reader.Read(buf)
		for _, r := range buf[:n] {
			if int(r.Action) < 0 || int(r.Action) >= meta.NumActions {
				return nil, fmt.Errorf("%s: %w: action %d out of range", path, ErrSchema, r.Action)
			}
			s := env.State{
				Progress: int(r.Progress),
				Lives:    int(r.Lives),
				Major:    int(r.Major),
				Minor:    int(r.Minor),
			}
			t.values[Key{State: s, Action: int(r.Action)}] = r.Value
		}
		if readErr == io.EOF || (readErr == nil && n == 0) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, readErr)
		}
	}
	return t, nil
}

func checkMeta(pf *parquet.File, meta Meta) error {
	want := map[string]string{
		"schema":        schemaVersion,
		"state_variant": meta.StateVariant,
		"catalog":       meta.Catalog,
		"actions":       strconv.Itoa(meta.NumActions),
	}
	for key, value := range want {
		got, ok := pf.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrSchema, key)
		}
		if got != value {
			return fmt.Errorf("%w: %s is %q, want %q", ErrSchema, key, got, value)
		}
	}
	return nil
}
