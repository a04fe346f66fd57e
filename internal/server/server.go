// Package server exposes imports, records, search and stats over a small
// JSON API.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/search"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

const maxUploadSize = 64 << 20 // 64MB

// SinkOpener opens a document store session for one upload. It returns a
// nil sink when no store is configured.
type SinkOpener func(ctx context.Context) (store.Sink, func(), error)

type Server struct {
	DB       *index.DB
	Log      logger.Logger
	OpenSink SinkOpener
	Now      func() time.Time
}

type importResponse struct {
	ImportKey  string `json:"import_key"`
	Collection string `json:"collection,omitempty"`
	Records    int    `json:"records"`
	Persisted  bool   `json:"persisted"`
}

type importJSON struct {
	ImportKey   string   `json:"import_key"`
	Source      string   `json:"source"`
	FilePath    string   `json:"file_path,omitempty"`
	Collection  string   `json:"collection,omitempty"`
	FirstDate   string   `json:"first_date"`
	LastDate    string   `json:"last_date"`
	Users       []string `json:"users"`
	RecordCount int      `json:"record_count"`
	ImportedAt  string   `json:"imported_at"`
}

type searchJSON struct {
	ImportKey string  `json:"import_key"`
	Seq       int     `json:"seq"`
	Date      string  `json:"date"`
	User      string  `json:"user"`
	Snippet   string  `json:"snippet"`
	Rank      float64 `json:"rank"`
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Log == nil {
		s.Log = logger.Discard()
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.POST("/imports", s.createImport)
	api.GET("/imports", s.listImports)
	api.GET("/records", s.listRecords)
	api.GET("/stats", s.stats)
	api.GET("/search", s.search)

	return router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	n, err := s.DB.ImportCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "imports": n})
}

// createImport parses the raw export in the request body, indexes it under
// a fresh upload key and forwards it to the document store if one is set.
func (s *Server) createImport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}
	if len(body) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "export too large"})
		return
	}

	records, err := parse.Parse(string(body))
	if err != nil {
		var dfe *parse.DateFormatError
		if errors.As(err, &dfe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "value": dfe.Value})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusOK, importResponse{})
		return
	}

	now := s.Now()
	key := "upload:" + uuid.NewString()
	if name := c.Query("name"); name != "" {
		key = "upload:" + name + ":" + uuid.NewString()
	}

	resp := importResponse{ImportKey: key, Records: len(records)}
	if s.OpenSink != nil {
		sink, closeSink, err := s.OpenSink(c.Request.Context())
		if err != nil {
			s.Log.Error("open document store", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if sink != nil {
			defer closeSink()
			collection := store.CollectionName(now)
			persisted, err := store.Persist(c.Request.Context(), sink, collection, records)
			if err != nil {
				s.Log.Error("persist upload", "import", key, "error", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			resp.Persisted = persisted
			resp.Collection = collection
		}
	}

	imp := index.NewImportRow(key, index.SourceUpload, resp.Collection, parse.NewResult(records), now)
	if err := s.DB.ReplaceImport(c.Request.Context(), imp, records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.Log.Info("import created", "import", key, "records", len(records), "persisted", resp.Persisted)
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) listImports(c *gin.Context) {
	imports, err := s.DB.ListImports()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]importJSON, 0, len(imports))
	for _, imp := range imports {
		out = append(out, importJSON{
			ImportKey:   imp.ImportKey,
			Source:      imp.Source,
			FilePath:    imp.FilePath,
			Collection:  imp.Collection,
			FirstDate:   imp.FirstDate,
			LastDate:    imp.LastDate,
			Users:       imp.Users,
			RecordCount: imp.RecordCount,
			ImportedAt:  imp.ImportedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// loadRecords resolves the ?import= parameter; it writes the error response
// itself and returns ok=false when the request cannot continue.
func (s *Server) loadRecords(c *gin.Context) ([]parse.Record, bool) {
	key := c.Query("import")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing import parameter"})
		return nil, false
	}
	imp, err := s.DB.GetImport(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if imp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "import not found"})
		return nil, false
	}
	records, err := s.DB.Records(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return records, true
}

func (s *Server) listRecords(c *gin.Context) {
	records, ok := s.loadRecords(c)
	if !ok {
		return
	}
	records = analytics.Filter(records, c.Query("user"))

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	if records == nil {
		records = []parse.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) stats(c *gin.Context) {
	records, ok := s.loadRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.Summarize(analytics.Filter(records, c.Query("user"))))
}

func (s *Server) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	results, err := search.Search(s.DB, search.Options{
		Query:  q,
		Import: c.Query("import"),
		User:   c.Query("user"),
		Since:  c.Query("since"),
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out := make([]searchJSON, 0, len(results))
	for _, r := range results {
		out = append(out, searchJSON(r))
	}
	c.JSON(http.StatusOK, out)
}
