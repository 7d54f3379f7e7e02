package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/renderer"
)

// Config holds server configuration
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RenderTimeout   time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	Debug           bool
	Render          layout.Config
	LogoDir         string
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *renderer.Pipeline
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and pipeline logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new API server
func NewServer(config *Config, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.RenderTimeout <= 0 {
		config.RenderTimeout = 30 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}

	s := &Server{
		config:  config,
		metrics: NewMetrics(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	pipelineOpts := []renderer.Option{renderer.WithLogger(s.logger)}
	if config.LogoDir != "" {
		pipelineOpts = append(pipelineOpts, renderer.WithLogoResolver(renderer.NewDirResolver(config.LogoDir)))
	}
	s.pipeline = renderer.NewPipeline(pipelineOpts...)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID(), requestLogger(s.logger), bodyLimit(config.MaxBodyBytes))
	s.router = router

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		invoices := v1.Group("/invoices")
		invoices.POST("/render", s.handleRender)
		invoices.POST("/totals", s.handleTotals)
		invoices.POST("/xml", s.handleXML)

		v1.POST("/documents/extract", s.handleExtract)
	}
}

// Run starts the HTTP server and blocks until ctx is done. In-flight
// requests get ShutdownTimeout to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// readBody returns the request body or writes the error response
func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}
	return body, true
}

// readDocument decodes an invoice from the request body
func readDocument(c *gin.Context) (*model.InvoiceDocument, []string, bool) {
	body, ok := readBody(c)
	if !ok {
		return nil, nil, false
	}

	in, err := model.ParseInput(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
		return nil, nil, false
	}

	doc, warnings, err := in.ToDocument()
	if err != nil {
		respondError(c, err, warnings)
		return nil, nil, false
	}
	return doc, warnings, true
}

func (s *Server) handleRender(c *gin.Context) {
	doc, warnings, ok := readDocument(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RenderTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.pipeline.Render(ctx, doc, s.config.Render)
	if err != nil {
		s.metrics.IncrementFailed(outcome(err))
		respondError(c, err, warnings)
		return
	}
	warnings = append(warnings, res.Warnings...)
	s.metrics.ObserveRender(start, res.Pages, len(warnings))

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, RenderResponse{
			PDF:      res.PDF,
			XML:      string(res.XML),
			Totals:   res.Totals,
			Pages:    res.Pages,
			Warnings: warnings,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(doc)))
	c.Header("X-Render-Pages", strconv.Itoa(res.Pages))
	c.Header("X-Render-Warnings", strconv.Itoa(len(warnings)))
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

func (s *Server) handleTotals(c *gin.Context) {
	doc, warnings, ok := readDocument(c)
	if !ok {
		return
	}

	sums, err := s.pipeline.Totals(doc, s.config.Render)
	if err != nil {
		respondError(c, err, warnings)
		return
	}

	c.JSON(http.StatusOK, TotalsResponse{Totals: sums, Warnings: warnings})
}

func (s *Server) handleXML(c *gin.Context) {
	doc, warnings, ok := readDocument(c)
	if !ok {
		return
	}

	xml, _, err := s.pipeline.EncodeXML(doc, s.config.Render)
	if err != nil {
		respondError(c, err, warnings)
		return
	}

	c.Header("X-Render-Warnings", strconv.Itoa(len(warnings)))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", xml)
}

func (s *Server) handleExtract(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	name := c.DefaultQuery("name", facturx.FileName)
	report, err := assembler.Inspect(body)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	xml, rel, err := assembler.Extract(body, name)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	resp := ExtractResponse{
		Name:         name,
		Relationship: rel,
		XML:          string(xml),
		Document:     report,
	}
	if summary, err := facturx.Parse(xml); err == nil {
		resp.Invoice = summary
	} else {
		resp.Warnings = append(resp.Warnings, "attachment is not a CII invoice: "+err.Error())
	}

	c.JSON(http.StatusOK, resp)
}

// respondError maps typed errors to status codes
func respondError(c *gin.Context, err error, warnings []string) {
	var (
		validation *model.ValidationError
		contract   *model.ContractError
		render     *model.RenderError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:    "validation failed",
			Field:    validation.Field,
			Details:  validation.Error(),
			Warnings: warnings,
		})
	case errors.Is(err, assembler.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "attachment not found", Details: err.Error()})
	case errors.As(err, &contract) && (contract.Stage == "extract" || contract.Stage == "inspect"):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "not a readable PDF", Details: err.Error()})
	case errors.As(err, &contract):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal contract violation", Details: err.Error(), Warnings: warnings})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "render timed out"})
	case errors.As(err, &render):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "render failed", Details: err.Error(), Warnings: warnings})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Details: err.Error(), Warnings: warnings})
	}
}

// outcome labels a failed render for the metrics
func outcome(err error) string {
	var validation *model.ValidationError
	switch {
	case errors.As(err, &validation):
		return "invalid"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func fileName(doc *model.InvoiceDocument) string {
	if doc.IsDraft() {
		return "rechnung-entwurf.pdf"
	}
	return "rechnung-" + sanitize(doc.Number) + ".pdf"
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
