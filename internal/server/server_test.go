package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

const sampleExport = "12/05/23, 14:03 - Alice: Hi there\n" +
	"12/05/23, 14:05 - Bob joined\n" +
	"12/05/23, 23:10 - Bob: pizza tonight?\n" +
	"13/05/23, 00:15 - Alice: pizza sounds good\n"

type memSink struct {
	collection string
	records    []parse.Record
	fail       error
}

func (m *memSink) InsertRecords(_ context.Context, collection string, records []parse.Record) error {
	if m.fail != nil {
		return m.fail
	}
	m.collection = collection
	m.records = append(m.records, records...)
	return nil
}

func newTestServer(t *testing.T, sink store.Sink) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := &Server{
		DB:  db,
		Now: func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) },
	}
	if sink != nil {
		s.OpenSink = func(context.Context) (store.Sink, func(), error) {
			return sink, func() {}, nil
		}
	}
	return s, s.Router()
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, r http.Handler, body string) importResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/imports?name=friends", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp importResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t, nil)
	w := do(t, r, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCreateImportPersists(t *testing.T) {
	sink := &memSink{}
	_, r := newTestServer(t, sink)

	resp := upload(t, r, sampleExport)
	if !strings.HasPrefix(resp.ImportKey, "upload:friends:") {
		t.Errorf("ImportKey = %q", resp.ImportKey)
	}
	if resp.Records != 4 || !resp.Persisted {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Collection != "chat20240301_093000" || sink.collection != resp.Collection {
		t.Errorf("collection = %q, sink got %q", resp.Collection, sink.collection)
	}
	if len(sink.records) != 4 {
		t.Errorf("sink records = %d", len(sink.records))
	}
}

func TestCreateImportWithoutSink(t *testing.T) {
	_, r := newTestServer(t, nil)
	resp := upload(t, r, sampleExport)
	if resp.Persisted || resp.Collection != "" {
		t.Errorf("resp = %+v", resp)
	}

	w := do(t, r, http.MethodGet, "/api/imports", "")
	var imports []importJSON
	if err := json.Unmarshal(w.Body.Bytes(), &imports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(imports) != 1 || imports[0].ImportKey != resp.ImportKey {
		t.Fatalf("imports = %+v", imports)
	}
	if imports[0].Source != index.SourceUpload || imports[0].RecordCount != 4 {
		t.Errorf("import = %+v", imports[0])
	}
}

func TestCreateImportDateFormatError(t *testing.T) {
	sink := &memSink{}
	_, r := newTestServer(t, sink)

	w := do(t, r, http.MethodPost, "/api/imports", "31/02/23, 10:00 - Alice: hi\n")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(sink.records) != 0 {
		t.Errorf("sink received %d records", len(sink.records))
	}
}

func TestCreateImportEmpty(t *testing.T) {
	sink := &memSink{}
	_, r := newTestServer(t, sink)

	w := do(t, r, http.MethodPost, "/api/imports", "no timestamps in here")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if sink.collection != "" {
		t.Errorf("sink was called for empty export")
	}
}

func TestCreateImportSinkFailure(t *testing.T) {
	sink := &memSink{fail: errors.New("boom")}
	s, r := newTestServer(t, sink)

	w := do(t, r, http.MethodPost, "/api/imports", sampleExport)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	n, err := s.DB.ImportCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("import indexed despite sink failure: %d", n)
	}
}

func TestRecordsAndStats(t *testing.T) {
	_, r := newTestServer(t, nil)
	key := upload(t, r, sampleExport).ImportKey

	w := do(t, r, http.MethodGet, "/api/records?import="+key+"&limit=2", "")
	var records []parse.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 2 || records[0].User != "Alice" || records[1].User != parse.GroupNotification {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Period != "14-15" || records[0].OnlyDate != "2023-05-12" {
		t.Errorf("record 0 = %+v", records[0])
	}

	w = do(t, r, http.MethodGet, "/api/stats?import="+key+"&user=Alice", "")
	var sum analytics.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if sum.Messages != 2 {
		t.Errorf("Messages = %d, want 2", sum.Messages)
	}
}

func TestRecordsErrors(t *testing.T) {
	_, r := newTestServer(t, nil)

	if w := do(t, r, http.MethodGet, "/api/records", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing import: status = %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/records?import=upload:nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown import: status = %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	_, r := newTestServer(t, nil)
	key := upload(t, r, sampleExport).ImportKey

	w := do(t, r, http.MethodGet, "/api/search?q=pizza&user=Bob", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var results []searchJSON
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].User != "Bob" || results[0].ImportKey != key {
		t.Errorf("results = %+v", results)
	}

	if w := do(t, r, http.MethodGet, "/api/search", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: status = %d", w.Code)
	}
	for _, limit := range []string{"ten", "-1"} {
		if w := do(t, r, http.MethodGet, "/api/search?q=pizza&limit="+limit, ""); w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d", limit, w.Code)
		}
	}
}
