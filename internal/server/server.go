// Package server hosts the dashboard over HTTP.
//
// The table is generated once when the server is built and shared read-only
// by every request; each request only picks a selection and renders.
package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/san-kum/ecodash/internal/analysis"
	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/filter"
	"github.com/san-kum/ecodash/internal/observe"
	"github.com/san-kum/ecodash/internal/render"
)

type Options struct {
	Title     string
	Selection []string
	Width     int
	Height    int
}

type Server struct {
	table   *observe.Table
	summary *analysis.Summary
	opts    Options
	log     *slog.Logger
	engine  *gin.Engine
}

// New validates the default selection against the table and wires routes.
func New(tbl *observe.Table, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Selection) > 0 {
		if _, err := filter.New(tbl.SpeciesNames(), opts.Selection); err != nil {
			return nil, err
		}
	}
	summary, err := analysis.Summarize(tbl)
	if err != nil {
		return nil, err
	}

	s := &Server{table: tbl, summary: summary, opts: opts, log: logger}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.SetHTMLTemplate(indexTemplate)

	r.GET("/", s.handleIndex)
	api := r.Group("/api")
	api.GET("/columns", s.handleColumns)
	api.GET("/table", s.handleTable)
	api.GET("/summary", s.handleSummary)
	api.GET("/dashboard", s.handleDashboard)
	r.GET("/charts/:id", s.handleChart)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// selection reads the repeatable species query parameter. Absent means
// the default selection; present with only empty values means none.
func (s *Server) selection(c *gin.Context) (filter.Selection, error) {
	available := s.table.SpeciesNames()
	values, present := c.GetQueryArray("species")
	if !present {
		return s.defaultSelection(), nil
	}
	chosen := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			chosen = append(chosen, v)
		}
	}
	return filter.New(available, chosen)
}

// defaultSelection is the configured selection, already validated by New,
// or the first species.
func (s *Server) defaultSelection() filter.Selection {
	available := s.table.SpeciesNames()
	if len(s.opts.Selection) > 0 {
		if sel, err := filter.New(available, s.opts.Selection); err == nil {
			return sel
		}
	}
	return filter.Default(available)
}

func (s *Server) dashboard(c *gin.Context) (*chart.Dashboard, filter.Selection, bool) {
	sel, err := s.selection(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, sel, false
	}
	d, err := chart.Build(s.table, sel)
	if err != nil {
		if errors.Is(err, observe.ErrUnknownColumn) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			s.log.Error("build dashboard", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, sel, false
	}
	return d, sel, true
}

func (s *Server) handleColumns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"columns": s.table.Columns(),
		"species": s.table.SpeciesNames(),
		"default": s.defaultSelection().Names(),
	})
}

func (s *Server) handleTable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"columns": s.table.Columns(),
		"rows":    s.table.Rows(),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.summary)
}

func (s *Server) handleDashboard(c *gin.Context) {
	d, sel, ok := s.dashboard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"selection": sel.Names(),
		"charts":    d,
	})
}

func (s *Server) handleChart(c *gin.Context) {
	id := c.Param("id")
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, _, ok := s.dashboard(c)
	if !ok {
		return
	}
	spec, found := d.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart: " + id})
		return
	}

	data, err := render.Bytes(spec, render.ImageOptions{Width: s.opts.Width, Height: s.opts.Height, Format: format})
	if err != nil {
		s.log.Error("render chart", "chart", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, format.ContentType(), data)
}

type option struct {
	Name     string
	Selected bool
}

func (s *Server) handleIndex(c *gin.Context) {
	d, sel, ok := s.dashboard(c)
	if !ok {
		return
	}

	q := url.Values{}
	for _, name := range sel.Names() {
		q.Add("species", name)
	}
	if sel.IsEmpty() {
		q.Set("species", "")
	}

	opts := make([]option, 0, len(sel.Available()))
	for _, name := range sel.Available() {
		opts = append(opts, option{Name: name, Selected: sel.Contains(name)})
	}

	insight := ""
	if sp, ok := s.summary.Get(d.Correlation.YLabel); ok {
		insight = analysis.Insight(sp)
	}

	c.HTML(http.StatusOK, "index", gin.H{
		"Title":   s.opts.Title,
		"Options": opts,
		"Query":   template.URL(q.Encode()),
		"Charts":  d,
		"Insight": insight,
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.row { display: flex; gap: 2em; }
.row > div { flex: 1; }
img { max-width: 100%; }
.insight { background: #eef6ff; padding: 1em; border-radius: 6px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>How rising temperature affects local biodiversity. Choose the species to observe.</p>
<form method="get" action="/">
<input type="hidden" name="species" value="">
<select name="species" multiple>
{{range .Options}}<option value="{{.Name}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
{{end}}</select>
<button type="submit">Apply</button>
</form>
<div class="row">
<div><h2>Temperature by year</h2><img src="/charts/temperature?{{.Query}}" alt="{{.Charts.Temperature.Title}}"></div>
<div><h2>Species population</h2><img src="/charts/species?{{.Query}}" alt="{{.Charts.Species.Title}}"></div>
</div>
<hr>
<h2>Temperature vs population</h2>
<img src="/charts/correlation?{{.Query}}" alt="{{.Charts.Correlation.Title}}">
<p class="insight">{{.Insight}}</p>
</body>
</html>
`))
