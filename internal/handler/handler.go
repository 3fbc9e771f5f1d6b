// Package handler exposes the compensation engine over HTTP using fasthttp.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"compensation-engine/internal/engine"
	"compensation-engine/internal/jsonpatch"
	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
	"compensation-engine/internal/render"
)

// Server routes requests to the engine. It keeps no per-request state.
type Server struct {
	engine  *engine.Engine
	store   *paramtable.Store
	sources []paramtable.Source
	tpl     render.Template
	logger  *zap.Logger
}

func New(eng *engine.Engine, store *paramtable.Store, sources []paramtable.Source, tpl render.Template, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, store: store, sources: sources, tpl: tpl, logger: logger}
}

// Handle is the fasthttp request handler.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	var want string
	var h func(*fasthttp.RequestCtx)
	switch path {
	case "/api/calculate":
		want, h = fasthttp.MethodPost, s.handleCalculate
	case "/api/export":
		want, h = fasthttp.MethodPost, s.handleExport
	case "/api/compare":
		want, h = fasthttp.MethodPost, s.handleCompare
	case "/api/tables":
		want, h = fasthttp.MethodGet, s.handleTables
	case "/api/tables/reload":
		want, h = fasthttp.MethodPost, s.handleReload
	case "/healthz":
		want, h = fasthttp.MethodGet, s.handleHealth
	default:
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusNotFound,
			Kind:    "route_not_found",
			Message: "no route for " + path,
		})
		return
	}
	if method != want {
		ctx.Response.Header.Set(fasthttp.HeaderAllow, want)
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusMethodNotAllowed,
			Kind:    "method_not_allowed",
			Message: "Method not allowed",
		})
		return
	}
	h(ctx)
}

func (s *Server) handleCalculate(ctx *fasthttp.RequestCtx) {
	var req model.CaseRequest
	if !decodeBody(ctx, &req) {
		return
	}

	resp, err := s.engine.Process(&req)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// handleExport evaluates the case and returns the rendered document. The
// format query parameter overrides the configured default.
func (s *Server) handleExport(ctx *fasthttp.RequestCtx) {
	tpl := s.tpl
	if f := ctx.QueryArgs().Peek("format"); len(f) > 0 {
		format, err := render.ParseFormat(string(f))
		if err != nil {
			writeErrorResponse(ctx, model.ErrorResponse{
				Status:  fasthttp.StatusBadRequest,
				Kind:    "invalid_format",
				Message: err.Error(),
			})
			return
		}
		tpl.Format = format
	}

	var req model.CaseRequest
	if !decodeBody(ctx, &req) {
		return
	}

	res, err := s.engine.EvaluateRequest(&req)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	doc, err := render.Render(res, tpl)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(doc.ContentType)
	ctx.Response.Header.Set("Content-Disposition", contentDisposition(doc.Name))
	ctx.Response.Header.Set("X-Result-Id", res.ResultID)
	ctx.SetBody(doc.Data)
}

// contentDisposition carries an ASCII fallback name plus the RFC 5987
// encoded UTF-8 name for clients that understand filename*.
func contentDisposition(name string) string {
	var ascii, encoded strings.Builder
	for _, r := range name {
		if r < 0x80 && r != '"' && r != '\\' && unicode.IsPrint(r) {
			ascii.WriteRune(r)
		} else {
			ascii.WriteByte('_')
		}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAttrChar(c) {
			encoded.WriteByte(c)
		} else {
			fmt.Fprintf(&encoded, "%%%02X", c)
		}
	}
	return `attachment; filename="` + ascii.String() + `"; filename*=UTF-8''` + encoded.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func (s *Server) handleCompare(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req model.CompareRequest
	if !decodeBody(ctx, &req) {
		return
	}

	baseline, err := s.engine.EvaluateRequest(&req.Baseline)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	revised, err := s.engine.EvaluateRequest(&req.Revised)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	ops, err := jsonpatch.Between(baseline, revised)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	patch, err := json.Marshal(ops)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if ops == nil {
		patch = []byte("[]")
	}

	writeJSON(ctx, fasthttp.StatusOK, model.CompareResponse{
		CalculationMetadata: engine.Metadata(start),
		Baseline:            baseline,
		Revised:             revised,
		Patch:               patch,
	})
}

type tableEntry struct {
	Key     string `json:"key"`
	Version string `json:"version"`
	Source  string `json:"source"`
}

type tablesResponse struct {
	Revision string       `json:"revision"`
	Sources  []string     `json:"sources"`
	Tables   []tableEntry `json:"tables"`
}

func listTables(snap *paramtable.Snapshot) tablesResponse {
	resp := tablesResponse{
		Revision: snap.Revision(),
		Sources:  snap.Sources(),
		Tables:   []tableEntry{},
	}
	for _, k := range snap.Keys() {
		row, _ := snap.Lookup(k)
		resp.Tables = append(resp.Tables, tableEntry{Key: k.String(), Version: row.Version, Source: row.Source})
	}
	return resp
}

func (s *Server) handleTables(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, listTables(s.store.Snapshot()))
}

// handleReload re-reads the configured sources. A failed reload keeps the
// previous tables active.
func (s *Server) handleReload(ctx *fasthttp.RequestCtx) {
	if len(s.sources) == 0 {
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusConflict,
			Kind:    "no_sources",
			Message: "no table sources configured",
		})
		return
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.store.Load(loadCtx, s.sources...); err != nil {
		s.logger.Warn("table reload failed", zap.Error(err))
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusBadGateway,
			Kind:    "reload_failed",
			Message: err.Error(),
		})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, listTables(s.store.Snapshot()))
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	snap := s.store.Snapshot()
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status":   "ok",
		"tables":   snap.Len(),
		"revision": snap.Revision(),
	})
}

func decodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusBadRequest,
			Kind:    "invalid_body",
			Message: "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	var (
		verr *model.ValidationError
		nerr *model.NotFoundError
		cerr *model.ComputationError
		rerr *model.RenderError
	)
	resp := model.ErrorResponse{Message: err.Error()}
	switch {
	case errors.As(err, &verr):
		resp.Status, resp.Kind, resp.Violations = fasthttp.StatusBadRequest, "validation", verr.Violations
	case errors.As(err, &nerr):
		resp.Status, resp.Kind = fasthttp.StatusNotFound, "table_not_found"
	case errors.As(err, &cerr):
		resp.Status, resp.Kind, resp.Category = fasthttp.StatusUnprocessableEntity, "computation", cerr.Category
	case errors.As(err, &rerr):
		resp.Status, resp.Kind = fasthttp.StatusInternalServerError, "render"
	default:
		resp.Status, resp.Kind = fasthttp.StatusInternalServerError, "internal"
	}
	if resp.Status >= fasthttp.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err),
		)
	}
	writeErrorResponse(ctx, resp)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"status":500,"kind":"internal","message":"encode response"}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeErrorResponse(ctx *fasthttp.RequestCtx, resp model.ErrorResponse) {
	writeJSON(ctx, resp.Status, resp)
}
