package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/chatlens/internal/parse"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS imports (
    import_key   TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    file_path    TEXT NOT NULL DEFAULT '',
    collection   TEXT NOT NULL DEFAULT '',
    first_date   TEXT NOT NULL DEFAULT '',
    last_date    TEXT NOT NULL DEFAULT '',
    users        TEXT NOT NULL DEFAULT '',
    record_count INTEGER NOT NULL DEFAULT 0,
    imported_at  TEXT NOT NULL DEFAULT '',
    mtime        INTEGER NOT NULL DEFAULT 0,
    size         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS records (
    import_key  TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    date        TEXT NOT NULL,
    user        TEXT NOT NULL,
    message     TEXT NOT NULL,
    only_date   TEXT NOT NULL,
    year        INTEGER NOT NULL,
    month_num   INTEGER NOT NULL,
    month       TEXT NOT NULL,
    day         INTEGER NOT NULL,
    day_name    TEXT NOT NULL,
    hour        INTEGER NOT NULL,
    minute      INTEGER NOT NULL,
    period      TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (import_key, seq)
);

CREATE INDEX IF NOT EXISTS records_only_date ON records(only_date);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
    message,
    content=records,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
    INSERT INTO records_fts(rowid, message) VALUES (new.rowid, new.message);
END;

CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, message) VALUES('delete', old.rowid, old.message);
END;

CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, message) VALUES('delete', old.rowid, old.message);
    INSERT INTO records_fts(rowid, message) VALUES (new.rowid, new.message);
END;
`

// dateLayout is how record and import timestamps are stored.
const dateLayout = "2006-01-02T15:04:05Z"

const recordColumns = "import_key, seq, date, user, message, only_date, year, month_num, month, day, day_name, hour, minute, period, line_number"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	// schema version tracking for forced re-index
	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever record normalization changes
// to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index by resetting all import mtime/size to 0
		d.db.Exec("UPDATE imports SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ImportInfo struct {
	Mtime int64
	Size  int64
	// Collection is set once the export reached the document store.
	Collection string
}

func (d *DB) GetImportInfo(importKey string) (*ImportInfo, error) {
	var info ImportInfo
	err := d.db.QueryRow(
		"SELECT mtime, size, collection FROM imports WHERE import_key = ?",
		importKey,
	).Scan(&info.Mtime, &info.Size, &info.Collection)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllImportKeys(source string) (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT import_key FROM imports WHERE source = ?", source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteImport(importKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteImportTx(context.Background(), tx, importKey); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteImportTx(ctx context.Context, tx *sql.Tx, importKey string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE import_key = ?", importKey); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM imports WHERE import_key = ?", importKey)
	return err
}

// Import sources.
const (
	SourceFile   = "file"
	SourceUpload = "upload"
)

type ImportRow struct {
	ImportKey   string
	Source      string
	FilePath    string
	Collection  string
	FirstDate   string
	LastDate    string
	Users       []string
	RecordCount int
	ImportedAt  string
	Mtime       int64
	Size        int64
}

// NewImportRow fills the summary columns of an import from a parse result.
func NewImportRow(importKey, source, collection string, result *parse.ParseResult, now time.Time) ImportRow {
	row := ImportRow{
		ImportKey:   importKey,
		Source:      source,
		FilePath:    result.Meta.FilePath,
		Collection:  collection,
		Users:       result.Meta.Users,
		RecordCount: len(result.Records),
		ImportedAt:  now.UTC().Format(dateLayout),
		Size:        result.Meta.Size,
	}
	if !result.Meta.Mtime.IsZero() {
		row.Mtime = result.Meta.Mtime.Unix()
	}
	if len(result.Records) > 0 {
		row.FirstDate = result.Meta.FirstDate.Format(dateLayout)
		row.LastDate = result.Meta.LastDate.Format(dateLayout)
	}
	return row
}

// ReplaceImport drops any previous rows of the import and writes the new
// ones in a single transaction. Record order is kept in seq.
func (d *DB) ReplaceImport(ctx context.Context, imp ImportRow, records []parse.Record) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteImportTx(ctx, tx, imp.ImportKey); err != nil {
		return fmt.Errorf("delete old rows: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (import_key, source, file_path, collection, first_date, last_date, users, record_count, imported_at, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ImportKey,
		imp.Source,
		imp.FilePath,
		imp.Collection,
		imp.FirstDate,
		imp.LastDate,
		strings.Join(imp.Users, "\n"),
		len(records),
		imp.ImportedAt,
		imp.Mtime,
		imp.Size,
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			imp.ImportKey,
			i,
			r.Date.Format(dateLayout),
			r.User,
			r.Message,
			r.OnlyDate,
			r.Year,
			r.MonthNum,
			r.Month,
			r.Day,
			r.DayName,
			r.Hour,
			r.Minute,
			r.Period,
			r.Line,
		)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (d *DB) ImportCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM imports").Scan(&n)
	return n, err
}

func (d *DB) RecordCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records_fts").Scan(&n)
	return n, err
}

const importColumns = "import_key, source, file_path, collection, first_date, last_date, users, record_count, imported_at, mtime, size"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImport(s rowScanner) (ImportRow, error) {
	var imp ImportRow
	var users string
	err := s.Scan(&imp.ImportKey, &imp.Source, &imp.FilePath, &imp.Collection,
		&imp.FirstDate, &imp.LastDate, &users, &imp.RecordCount, &imp.ImportedAt,
		&imp.Mtime, &imp.Size)
	if users != "" {
		imp.Users = strings.Split(users, "\n")
	}
	return imp, err
}

func (d *DB) GetImport(importKey string) (*ImportRow, error) {
	imp, err := scanImport(d.db.QueryRow(
		"SELECT "+importColumns+" FROM imports WHERE import_key = ?",
		importKey,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &imp, nil
}

// ListImports returns imports, most recent conversation first.
func (d *DB) ListImports() ([]ImportRow, error) {
	rows, err := d.db.Query("SELECT " + importColumns + " FROM imports ORDER BY last_date DESC, import_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imports []ImportRow
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// RecordRow is a stored record with its position in the import.
type RecordRow struct {
	ImportKey string
	Seq       int
	parse.Record
}

func scanRecord(s rowScanner) (RecordRow, error) {
	var r RecordRow
	var date string
	err := s.Scan(&r.ImportKey, &r.Seq, &date, &r.User, &r.Message, &r.OnlyDate,
		&r.Year, &r.MonthNum, &r.Month, &r.Day, &r.DayName, &r.Hour, &r.Minute,
		&r.Period, &r.Line)
	if err != nil {
		return r, err
	}
	r.Date, err = time.Parse(dateLayout, date)
	return r, err
}

func scanRecords(rows *sql.Rows) ([]RecordRow, error) {
	var records []RecordRow
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Records returns the records of one import in their original order.
func (d *DB) Records(importKey string) ([]parse.Record, error) {
	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE import_key = ? ORDER BY seq",
		importKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	records := make([]parse.Record, len(stored))
	for i, r := range stored {
		records[i] = r.Record
	}
	return records, nil
}

func (d *DB) GetRecord(importKey string, seq int) (*RecordRow, error) {
	r, err := scanRecord(d.db.QueryRow(
		"SELECT "+recordColumns+" FROM records WHERE import_key = ? AND seq = ?",
		importKey, seq,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecordsWindow returns a window of records around a hit record.
// startPos is the number of records before the returned window.
// totalCount is the total number of records in the import.
func (d *DB) GetRecordsWindow(importKey string, hitSeq, context int) (records []RecordRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM records WHERE import_key = ?", importKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// seq is dense and 0-based, so it is also the row position
	hitPos := -1
	if hitSeq >= 0 && hitSeq < totalCount {
		hitPos = hitSeq
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = max(hitPos-context, 0)
		endPos := min(hitPos+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE import_key = ? ORDER BY seq LIMIT ? OFFSET ?",
		importKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	records, err = scanRecords(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	hitIdx = -1
	if hitPos >= 0 {
		hitIdx = hitPos - startPos
	}
	return records, hitIdx, startPos, totalCount, nil
}
