package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/rezonia/invoice-composer/internal/config"
	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/generator"
	"github.com/rezonia/invoice-composer/internal/model"
	xmlparser "github.com/rezonia/invoice-composer/internal/parser/xml"
	"github.com/rezonia/invoice-composer/internal/pdfa"
	"github.com/rezonia/invoice-composer/internal/seal"
)

// SealHeader carries the integrity seal of a generated document
const SealHeader = "X-Invoice-Seal"

// maxUpload bounds multipart uploads kept in memory
const maxUpload = 32 << 20

// Config holds server configuration
type Config struct {
	Address      string
	Composer     *config.Config
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	registry *einvoice.Registry
	sealer   *seal.Sealer
	logger   *log.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new API server
func NewServer(cfg *Config, opts ...Option) *Server {
	if cfg.Composer == nil {
		cfg.Composer = config.Default()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:   cfg,
		router:   router,
		registry: einvoice.NewRegistry(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Sealing is optional; without a key generated documents carry no seal
	if key := cfg.Composer.Seal.Key; key != "" {
		if sealer, err := seal.New([]byte(key)); err == nil {
			s.sealer = sealer
		}
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/profiles", s.handleProfiles)

		// Composition endpoints
		v1.POST("/generate", s.handleGenerate)
		v1.POST("/xml/:profile", s.handleXML)
		v1.POST("/embed", s.handleEmbed)

		// Inspection endpoints
		v1.POST("/inspect", s.handleInspect)
		v1.POST("/verify", s.handleVerify)
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("listening", "address", s.config.Address)
	return srv.ListenAndServe()
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

func (s *Server) handleProfiles(c *gin.Context) {
	var out []ProfileInfo
	for _, p := range s.registry.Profiles() {
		enc, err := s.registry.Get(p)
		if err != nil {
			continue
		}
		conf := enc.Conformance()
		out = append(out, ProfileInfo{
			Profile:          string(p),
			FileName:         enc.FileName(),
			Version:          conf.Version,
			ConformanceLevel: conf.ConformanceLevel,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGenerate(c *gin.Context) {
	inv, ok := s.readInvoice(c)
	if !ok {
		return
	}

	cfg := s.config.Composer
	profile := cfg.Profile()
	if q := c.Query("profile"); q != "" {
		p, err := einvoice.ParseProfile(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		profile = p
	}

	// Resources are read for every request
	font, err := cfg.ReadFont()
	if err != nil {
		s.writeError(c, err)
		return
	}
	logo, err := cfg.ReadLogo()
	if err != nil {
		s.writeError(c, err)
		return
	}

	g := generator.New(
		generator.WithLogger(s.logger),
		generator.WithProfile(profile),
		generator.WithAttachmentName(cfg.Output.Attachment),
		generator.WithDocument(cfg.Document.Title, cfg.Document.Creator),
		generator.WithICCProfile(cfg.Resources.ICCProfile),
	)
	res, err := g.Build(inv, font, logo)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.sealer != nil {
		c.Header(SealHeader, s.sealer.Compute(inv.Number, res.PDF))
	}
	c.Header("Content-Disposition", `attachment; filename="`+safeFileName(inv.Number)+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

func (s *Server) handleXML(c *gin.Context) {
	profile, err := einvoice.ParseProfile(c.Param("profile"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	inv, ok := s.readInvoice(c)
	if !ok {
		return
	}

	enc, err := s.registry.Get(profile)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := enc.Encode(inv)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(out))
}

func (s *Server) handleEmbed(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form with pdf and xml parts"})
		return
	}
	pdf, err := formFile(c, "pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	xml, err := formFile(c, "xml")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := c.PostForm("filename")
	if filename == "" {
		filename = s.config.Composer.Output.Attachment
	}
	if filename == "" {
		enc, err := s.registry.Get(s.config.Composer.Profile())
		if err != nil {
			s.writeError(c, err)
			return
		}
		filename = enc.FileName()
	}

	packager := pdfa.NewPackager(
		pdfa.WithLogger(s.logger),
		pdfa.WithICCProfile(s.config.Composer.Resources.ICCProfile),
	)
	out, err := packager.Embed(pdf, string(xml), filename)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", out)
}

func (s *Server) handleInspect(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	report, err := pdfa.Inspect(body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := InspectResponse{Report: report}
	if name := xmlparser.AssociatedName(report); name != "" {
		doc, err := xmlparser.Embedded(c.Request.Context(), body, name)
		if err != nil {
			response.Warnings = append(response.Warnings, err.Error())
		} else {
			response.Invoice = doc
		}
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.sealer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "seal verification unavailable",
			"details": "no sealing key configured",
		})
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	invoiceID := c.Query("invoice_id")
	digest := c.Query("seal")
	if digest == "" {
		digest = c.GetHeader(SealHeader)
	}
	if invoiceID == "" || digest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice_id and seal are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := s.sealer.Verify(ctx, invoiceID, body, digest)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "seal verification failed",
			"details": err.Error(),
		})
		return
	}

	response := VerifyResponse{
		Valid:           result.Valid,
		SealValid:       result.SealValid,
		AttachmentFound: result.AttachmentFound,
		Attachment:      result.Attachment,
		AttachedNumber:  result.AttachedNumber,
		PDFA:            result.PDFA,
		Warnings:        result.Warnings,
		Errors:          result.Errors,
	}
	if result.Valid {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusUnprocessableEntity, response)
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	mt := mimetype.Detect(body)
	c.JSON(http.StatusOK, InfoResponse{
		MimeType:  mt.String(),
		Extension: mt.Extension(),
		Size:      len(body),
	})
}

// Helper functions

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return nil, false
	}
	return body, true
}

func (s *Server) readInvoice(c *gin.Context) (*model.Invoice, bool) {
	body, ok := readBody(c)
	if !ok {
		return nil, false
	}
	format := "json"
	if strings.Contains(c.GetHeader("Content-Type"), "toml") {
		format = "toml"
	}
	inv, err := config.ParseInvoice(body, format)
	if err != nil {
		var valErr *model.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice", Details: valErr.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot parse invoice", Details: err.Error()})
		return nil, false
	}
	return inv, true
}

func formFile(c *gin.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, errors.New("missing form part: " + name)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeError maps the error taxonomy onto HTTP status codes
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		resErr    *model.ResourceError
		structErr *model.StructureError
		encErr    *model.EncodingError
		valErr    *model.ValidationError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
	case errors.As(err, &structErr), errors.As(err, &encErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &resErr):
		// font and ICC profile live on the server
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func safeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "invoice"
	}
	return s
}
