package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

// Runs against a live server only when CHATLENS_TEST_MONGO_URI is set.
func TestMongoInsertRecords(t *testing.T) {
	uri := os.Getenv("CHATLENS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CHATLENS_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := Dial(ctx, config.MongoConfig{
		URI:                    uri,
		Database:               "chatlens_test",
		Attempts:               2,
		RetryDelay:             time.Second,
		ServerSelectionTimeout: 5 * time.Second,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer m.Close(ctx)

	records, err := parse.Parse("12/05/23, 14:05 - Alice: Hi\n12/05/23, 14:06 - Bob: Yo")
	if err != nil {
		t.Fatal(err)
	}

	coll := CollectionName(time.Now())
	if ok, err := Persist(ctx, m, coll, records); err != nil || !ok {
		t.Fatalf("Persist = %v, %v", ok, err)
	}
	defer m.db.Collection(coll).Drop(ctx)

	n, err := m.Count(ctx, coll)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestDialUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	ctx := context.Background()
	_, err := Dial(ctx, config.MongoConfig{
		URI:                    "mongodb://127.0.0.1:1/?directConnection=true",
		Database:               "x",
		Attempts:               2,
		RetryDelay:             10 * time.Millisecond,
		ServerSelectionTimeout: 100 * time.Millisecond,
	}, logger.Discard())
	if err == nil {
		t.Fatal("expected dial failure")
	}
}
