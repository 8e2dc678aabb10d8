// Package handler exposes the review session lifecycle over HTTP. It owns
// transport concerns only: multipart and JSON parsing, URL parameter
// validation, and response shaping. Every decision lives in the service.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
	"claimcheck/pkg/platform/httputil"
	"claimcheck/pkg/requestcontext"
)

// DefaultMaxUploadBytes bounds receipt uploads. Phone camera JPEGs sit well
// under this.
const DefaultMaxUploadBytes = 10 << 20

// allowedUploadTypes restricts receipt uploads at the transport boundary.
// The extraction backend enforces the same set.
var allowedUploadTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Service defines the review operations the handler exposes.
type Service interface {
	Intake(ctx context.Context, image models.ReceiptImage, note string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Clear(ctx context.Context, sessionID id.SessionID) error
	EditField(ctx context.Context, sessionID id.SessionID, field id.FieldName, value any) (*models.Session, error)
	SaveJustification(ctx context.Context, sessionID id.SessionID, field id.FieldName, ruleID, text string) (*models.Session, error)
	Validate(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Explain(ctx context.Context, sessionID id.SessionID, question string) (*models.Session, error)
	Submit(ctx context.Context, sessionID id.SessionID, userConfirmed bool) (*models.Session, error)
}

// Handler wires review endpoints to the review service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// Option configures the Handler.
type Option func(*Handler)

// WithMaxUploadBytes overrides the receipt upload size limit.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// New constructs a review handler with its dependencies.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts review endpoints on the router. Authentication middleware
// is applied by the caller; every route here assumes an identified user.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.HandleIntake)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleClear)
			r.Patch("/fields/{field}", h.HandleEditField)
			r.Put("/justifications/{field}/{ruleID}", h.HandleSaveJustification)
			r.Post("/validate", h.HandleValidate)
			r.Post("/explain", h.HandleExplain)
			r.Post("/submit", h.HandleSubmit)
		})
	})
}

// HandleIntake handles POST /sessions: a multipart receipt upload with an
// optional "note" field. Responds 201 with the fresh session snapshot.
func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "expected multipart form with a receipt file"))
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "receipt file is required"))
		return
	}
	defer file.Close()

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if !allowedUploadTypes[contentType] {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "receipt must be a PNG or JPEG image"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "read receipt upload"))
		return
	}
	if len(data) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "receipt file is empty"))
		return
	}

	session, err := h.service.Intake(ctx, models.ReceiptImage{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, strings.TrimSpace(r.FormValue("note")))
	if err != nil {
		h.logError(ctx, "receipt intake failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromSession(session))
}

// HandleGetSession handles GET /sessions/{sessionID}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleClear handles DELETE /sessions/{sessionID}. Clearing is the only
// way past a submitted session and always responds 204 on success.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEditField handles PATCH /sessions/{sessionID}/fields/{field}.
func (h *Handler) HandleEditField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	field, err := id.ParseFieldName(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[EditFieldRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.EditField(ctx, sessionID, field, req.ParsedValue())
	if err != nil {
		h.logError(ctx, "field edit failed", err, "field", field)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleSaveJustification handles
// PUT /sessions/{sessionID}/justifications/{field}/{ruleID}. PUT because
// saving twice for the same (field, rule) pair replaces the text.
func (h *Handler) HandleSaveJustification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	field, err := id.ParseFieldName(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ruleID := strings.TrimSpace(chi.URLParam(r, "ruleID"))
	if ruleID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "rule id is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[JustificationRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.SaveJustification(ctx, sessionID, field, ruleID, req.Text)
	if err != nil {
		h.logError(ctx, "justification save failed", err, "field", field, "rule_id", ruleID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleValidate handles POST /sessions/{sessionID}/validate. No body: the
// session already holds everything the rule evaluation needs.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.Validate(ctx, sessionID)
	if err != nil {
		h.logError(ctx, "validation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleExplain handles POST /sessions/{sessionID}/explain.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ExplainRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.Explain(ctx, sessionID, req.Question)
	if err != nil {
		h.logError(ctx, "explanation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleSubmit handles POST /sessions/{sessionID}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r)
	if !ok {
		return
	}

	session, err := h.service.Submit(ctx, sessionID, req.UserConfirmed)
	if err != nil {
		h.logError(ctx, "submission failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// sessionID parses the sessionID URL parameter, writing the error response
// itself so handlers just return on !ok.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, false
	}
	return sessionID, true
}

// logError records a failed operation. Client-class failures log at warn,
// everything else at error.
func (h *Handler) logError(ctx context.Context, msg string, err error, args ...any) {
	args = append(args,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)

	var de *dErrors.Error
	if errors.As(err, &de) && clientClass(dErrors.GetCode(err)) {
		h.logger.WarnContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}

func clientClass(code dErrors.Code) bool {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation,
		dErrors.CodeUnauthorized, dErrors.CodeForbidden, dErrors.CodeNotFound,
		dErrors.CodeConflict:
		return true
	default:
		return false
	}
}
