package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/parse"
)

// Sink receives the records of one import run.
type Sink interface {
	InsertRecords(ctx context.Context, collection string, records []parse.Record) error
}

// CollectionName is the per-run destination name, e.g. chat20230512_140500.
func CollectionName(t time.Time) string {
	return "chat" + t.Format("20060102_150405")
}

// Persist hands records to sink. An empty batch is skipped and reported as
// not persisted; it is never an error.
func Persist(ctx context.Context, sink Sink, collection string, records []parse.Record) (bool, error) {
	if sink == nil || len(records) == 0 {
		return false, nil
	}
	if err := sink.InsertRecords(ctx, collection, records); err != nil {
		return false, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return true, nil
}
