package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/scan"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

type Stats struct {
	Scanned   int
	Updated   int
	Skipped   int
	Empty     int
	Pruned    int
	Persisted int
	Records   int
	Errors    int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d empty=%d pruned=%d persisted=%d records=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Empty, s.Pruned, s.Persisted, s.Records, s.Errors)
}

type Options struct {
	// Sink, when set, also receives the records of every updated export.
	Sink store.Sink
	Log  logger.Logger
	Now  func() time.Time
}

func (o *Options) defaults() {
	if o.Log == nil {
		o.Log = logger.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// ImportKey derives the stable key of an export file under root.
func ImportKey(root, filePath string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		rel = filePath
	}
	return "export:" + strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
}

// IndexAll brings the index in line with the exports under root: new and
// changed files are re-parsed, unchanged ones skipped, vanished ones pruned.
func IndexAll(ctx context.Context, db *DB, root string, opts Options) (Stats, error) {
	opts.defaults()
	var stats Stats

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// one destination name per run; later exports get a numeric suffix
	runCollection := store.CollectionName(opts.Now())

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		key := ImportKey(root, fi.Path)
		seenKeys[key] = struct{}{}

		needs, err := needsUpdate(db, key, fi.Mtime, fi.Size, opts.Sink != nil)
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		result, err := parse.ParseFile(fi.Path)
		if err != nil {
			stats.Errors++
			var dfe *parse.DateFormatError
			if errors.As(err, &dfe) {
				opts.Log.Warn("unsupported timestamp format", "file", fi.Path, "value", dfe.Value)
			} else {
				opts.Log.Warn("parse export", "file", fi.Path, "error", err)
			}
			continue
		}
		if len(result.Records) == 0 {
			stats.Empty++
			delete(seenKeys, key)
			opts.Log.Debug("no messages in export", "file", fi.Path)
			continue
		}

		collection := ""
		if opts.Sink != nil {
			collection = runCollection
			if stats.Persisted > 0 {
				collection = fmt.Sprintf("%s_%d", runCollection, stats.Persisted+1)
			}
			if _, err := store.Persist(ctx, opts.Sink, collection, result.Records); err != nil {
				stats.Errors++
				opts.Log.Error("persist export", "file", fi.Path, "error", err)
				continue
			}
			stats.Persisted++
		}

		imp := NewImportRow(key, SourceFile, collection, result, opts.Now())
		if err := db.ReplaceImport(ctx, imp, result.Records); err != nil {
			stats.Errors++
			opts.Log.Warn("index export", "file", fi.Path, "error", err)
			continue
		}
		stats.Updated++
		stats.Records += len(result.Records)
		opts.Log.Debug("indexed export", "file", fi.Path, "records", len(result.Records), "collection", collection)
	}

	// prune imports whose files no longer exist
	pruned, err := pruneImports(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

// needsUpdate reports whether an export must be re-parsed. With a sink,
// exports indexed by a sink-less run count as stale until persisted.
func needsUpdate(db *DB, importKey string, mtime, size int64, persist bool) (bool, error) {
	info, err := db.GetImportInfo(importKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new export
	}
	if persist && info.Collection == "" {
		return true, nil
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func pruneImports(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllImportKeys(SourceFile)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteImport(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
