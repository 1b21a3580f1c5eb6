// Package api serves TMC parsing over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tmckit/internal/export"
	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/internal/preview"
	"github.com/samcharles93/tmckit/internal/version"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

// DefaultMaxUploadBytes caps a parse request body.
const DefaultMaxUploadBytes = 256 << 20

// multipartMemory is how much of a form is held in memory before spilling
// to temporary files.
const multipartMemory = 32 << 20

type Config struct {
	// Dialect is used when a request does not name one.
	Dialect        tmc.Dialect
	Strict         bool
	MaxUploadBytes int64
	PreviewFormat  string
	StoreCapacity  int
	Logger         logger.Logger
}

type Server struct {
	cfg   Config
	store *ParseStore
	log   logger.Logger
	clock func() time.Time
}

func NewServer(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.PreviewFormat == "" {
		cfg.PreviewFormat = preview.FormatWebP
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		cfg:   cfg,
		store: NewParseStore(cfg.StoreCapacity),
		log:   log.With("component", "api"),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)

	e.POST("/v1/parse", s.handleParse)
	e.GET("/v1/parse/:id", s.handleGetParse)
	e.DELETE("/v1/parse/:id", s.handleDeleteParse)
	e.GET("/v1/parse/:id/tree", s.handleTree)
	e.GET("/v1/parse/:id/textures", s.handleListTextures)
	e.GET("/v1/parse/:id/textures/:index", s.handleTexture)
	e.GET("/v1/parse/:id/textures/:index/preview", s.handlePreview)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
		Parses:  s.store.Len(),
	})
}

func (s *Server) handleParse(c *echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		if bodyTooLarge(err) {
			return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error",
				fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxUploadBytes), "")
		}
		return writeBadRequest(c, "expected a multipart form: "+err.Error())
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	dialect := s.cfg.Dialect
	if name := req.FormValue("dialect"); name != "" {
		d, err := tmc.ParseDialect(name)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "dialect")
		}
		dialect = d
	}
	if dialect == tmc.DialectUnknown {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "dialect is required", "dialect")
	}

	primary, err := formFile(req, "tmc", true)
	if err != nil {
		return s.writeFormError(c, err, "tmc")
	}
	linked, err := formFile(req, "tmcl", false)
	if err != nil {
		return s.writeFormError(c, err, "tmcl")
	}

	log := s.log.With("dialect", dialect.String(), "size", len(primary), "linked_size", len(linked))
	doc, err := tmc.Parse(dialect, container.NewSpan(primary), container.NewSpan(linked), tmc.Options{
		Strict: s.cfg.Strict,
		Logger: log,
	})
	if err != nil {
		log.Warn("parse failed", "error", err)
		return writeFailure(c, err, http.StatusUnprocessableEntity, "parse_error", "tmc")
	}
	rec := s.store.Create(doc, s.clock())
	log.Info("parsed", "id", rec.ID, "name", doc.Name(), "failures", len(doc.Failures()))
	return writeJSON(c, http.StatusOK, newParseResponse(rec))
}

// bodyTooLarge reports whether err came from the MaxBytesReader. Some
// multipart paths flatten the error, so the message is checked too.
func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) writeFormError(c *echo.Context, err error, param string) error {
	return writeFailure(c, err, http.StatusInternalServerError, "server_error", param)
}

func (s *Server) lookup(c *echo.Context) (*parseRecord, error) {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: parse %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *Server) handleGetParse(c *echo.Context) error {
	rec, err := s.lookup(c)
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	return writeJSON(c, http.StatusOK, newParseResponse(rec))
}

func (s *Server) handleDeleteParse(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "parse "+id+" not found")
	}
	return writeJSON(c, http.StatusOK, DeleteResponse{ID: id, Object: "tmc.parse.deleted", Deleted: true})
}

func (s *Server) handleTree(c *echo.Context) error {
	rec, err := s.lookup(c)
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	return writeJSON(c, http.StatusOK, TreeResponse{ID: rec.ID, Tree: rec.Tree})
}

func (s *Server) textures(c *echo.Context) (*parseRecord, []export.Entry, error) {
	rec, err := s.lookup(c)
	if err != nil {
		return nil, nil, err
	}
	entries, err := export.Textures(rec.Tree.Document)
	if err != nil {
		return rec, nil, err
	}
	return rec, entries, nil
}

func (s *Server) handleListTextures(c *echo.Context) error {
	rec, entries, err := s.textures(c)
	if err != nil {
		return s.writeTextureError(c, err)
	}
	if entries == nil {
		entries = []export.Entry{}
	}
	return writeJSON(c, http.StatusOK, TextureListResponse{ID: rec.ID, Textures: entries})
}

func (s *Server) texture(c *echo.Context) (export.Entry, error) {
	_, entries, err := s.textures(c)
	if err != nil {
		return export.Entry{}, err
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return export.Entry{}, newInvalidRequest("texture index must be an integer")
	}
	for _, e := range entries {
		if e.Index == idx {
			return e, nil
		}
	}
	return export.Entry{}, fmt.Errorf("%w: texture %d", ErrNotFound, idx)
}

func (s *Server) handleTexture(c *echo.Context) error {
	e, err := s.texture(c)
	if err != nil {
		return s.writeTextureError(c, err)
	}
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(e.FileName("texture")))
	return writeBlob(c, "application/octet-stream", e.Data)
}

func (s *Server) handlePreview(c *echo.Context) error {
	e, err := s.texture(c)
	if err != nil {
		return s.writeTextureError(c, err)
	}
	if e.Atlas == nil {
		return writeError(c, http.StatusUnprocessableEntity, "unsupported_error", "texture has no decodable pixel data", "index")
	}
	format := c.QueryParam("format")
	if format == "" {
		format = s.cfg.PreviewFormat
	}
	size := preview.DefaultSize
	if v := c.QueryParam("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size <= 0 {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", "size must be a positive integer", "size")
		}
	}
	var buf bytes.Buffer
	if err := preview.Render(&buf, e.Atlas, size, format); err != nil {
		return writeFailure(c, err, http.StatusInternalServerError, "server_error", "")
	}
	return writeBlob(c, "image/"+format, buf.Bytes())
}

func (s *Server) writeTextureError(c *echo.Context, err error) error {
	return writeFailure(c, err, http.StatusUnprocessableEntity, "parse_error", "")
}
