package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"retaillab/internal/data"
	"retaillab/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	msgConnectFailed = "Could not connect to database"
	msgInvalidTable  = "Invalid table name"
)

//go:embed web
var webFS embed.FS

// Connector hands out request-scoped database sessions. A nil Conn means the
// database could not be reached.
type Connector interface {
	Connect(ctx context.Context) *db.Conn
}

// Options configures a Server.
type Options struct {
	// ScriptPath is the schema/seed script replayed by /initdb.
	ScriptPath string
}

// Server routes the fixed queries and the bootstrap endpoint.
type Server struct {
	conns      Connector
	scriptPath string
	engine     *gin.Engine
}

// New builds the gin engine and registers every route.
func New(conns Connector, opts Options) (*Server, error) {
	if opts.ScriptPath == "" {
		opts.ScriptPath = "sql/init.sql"
	}

	tmpl, err := template.ParseFS(webFS, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	s := &Server{conns: conns, scriptPath: opts.ScriptPath}

	r := gin.New()
	r.Use(requestID(), accessLog(), gin.CustomRecovery(recoverJSON))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", filesOnly{http.FS(static)})

	r.GET("/", s.index)
	r.GET("/health", health)
	r.GET("/initdb", s.initDB)
	r.GET("/table/:name", s.table)
	for _, rep := range data.Reports {
		r.GET("/"+rep.Name, s.report(rep))
	}

	s.engine = r
	return s, nil
}

// Handler exposes the router for http.Server and httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Tables":  data.SnapshotNames,
		"Reports": data.Reports,
	})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "retailapi",
	})
}

// initDB drops, recreates and reseeds the schema from the init script.
func (s *Server) initDB(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Unexpected error during initialization: %v", r)
			c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("Unexpected error: %v", r)})
		}
	}()

	conn := s.conns.Connect(c.Request.Context())
	if conn == nil {
		c.JSON(http.StatusOK, gin.H{"error": msgConnectFailed})
		return
	}
	defer conn.Close()

	script, err := data.LoadScript(s.scriptPath)
	if err != nil {
		c.JSON(http.StatusOK, bootstrapError(err))
		return
	}

	// A client hanging up must not leave the script half applied.
	ctx := context.WithoutCancel(c.Request.Context())
	counts, err := data.Bootstrap(ctx, conn.DB, script)
	if err != nil {
		c.JSON(http.StatusOK, bootstrapError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Database initialized successfully",
		"table_counts": counts,
	})
}

func bootstrapError(err error) gin.H {
	var (
		stmtErr   *data.StatementError
		emptyErr  *data.EmptyTableError
		scriptErr *data.ScriptError
	)
	switch {
	case errors.As(err, &stmtErr):
		return gin.H{
			"error":     "Error during initialization: " + stmtErr.Err.Error(),
			"statement": stmtErr.Statement,
		}
	case errors.As(err, &emptyErr):
		return gin.H{"error": emptyErr.Error()}
	case errors.As(err, &scriptErr):
		log.Printf("Unexpected error during initialization: %v", err)
		return gin.H{"error": "Unexpected error: " + err.Error()}
	default:
		log.Printf("Database error during initialization: %v", err)
		return gin.H{"error": "Database error: " + err.Error()}
	}
}

func (s *Server) table(c *gin.Context) {
	query, ok := data.SnapshotQuery(c.Param("name"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidTable})
		return
	}
	s.respondRows(c, query)
}

func (s *Server) report(rep data.Report) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondRows(c, rep.Query)
	}
}

func (s *Server) respondRows(c *gin.Context, query string) {
	ctx := c.Request.Context()
	conn := s.conns.Connect(ctx)
	if conn == nil {
		c.JSON(http.StatusOK, gin.H{"error": msgConnectFailed})
		return
	}
	defer conn.Close()

	set, err := data.FetchRecords(ctx, conn.DB, query)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"columns": set.Columns,
		"data":    set.Rows,
	})
}

// filesOnly serves embedded files and reports directories as missing, so
// /static/ does not list its contents.
type filesOnly struct {
	http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		return fmt.Sprintf("%s | %3d | %13v | %-7s %s | %v\n",
			p.TimeStamp.Format(time.RFC3339),
			p.StatusCode,
			p.Latency,
			p.Method,
			p.Path,
			p.Keys[requestIDKey],
		)
	})
}

func recoverJSON(c *gin.Context, err any) {
	log.Printf("panic serving %s: %v", c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Unexpected error: %v", err)})
}
