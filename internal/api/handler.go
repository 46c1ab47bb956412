package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filedepot-backend/internal/config"
	"filedepot-backend/internal/domain"
	"filedepot-backend/internal/files"
)

const uploadField = "files"

// Handler wires HTTP routes to the files service.
type Handler struct {
	cfg    *config.Config
	svc    *files.Service
	logger *slog.Logger
}

// NewHandler creates a Handler instance.
func NewHandler(cfg *config.Config, svc *files.Service, logger *slog.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, logger: logger.With(slog.String("component", "api"))}
}

// Router returns a configured chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"filename", "file-content-type", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/admin/reconcile", h.handleReconcile)

	r.Route("/api/{appSource}", func(r chi.Router) {
		r.Post("/uploadFile", h.handleUpload)
		r.Patch("/indexFile", h.handleIndex)
		r.Get("/downloadFile", h.handleDownload)
		r.Get("/getFileDetails", h.handleDetails)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MultipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds max size of "+strconv.FormatInt(h.cfg.MaxUploadBytes, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File[uploadField]
	incoming := make([]files.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file part "+fh.Filename)
			return
		}
		defer f.Close()
		incoming = append(incoming, files.IncomingFile{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Body:         f,
		})
	}

	records, err := h.svc.Upload(r.Context(), chi.URLParam(r, "appSource"), r.URL.Query().Get("referenceObjId"), incoming)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req domain.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	rec, err := h.svc.Index(r.Context(), r.URL.Query().Get("fileId"), req.ReferenceObj)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := h.svc.Retrieve(r.Context(), q.Get("fileId"), q.Get("referenceObjId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer d.Content.Close()

	rec := d.Record
	w.Header().Set("filename", url.PathEscape(rec.OriginalName))
	w.Header().Set("file-content-type", rec.ContentType)
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(rec.FileLength, 10))
	if cd := mime.FormatMediaType("attachment", map[string]string{"filename": rec.OriginalName}); cd != "" {
		w.Header().Set("Content-Disposition", cd)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, d.Content); err != nil {
		h.logger.Warn("download interrupted",
			slog.String("file_id", rec.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rec, err := h.svc.Details(r.Context(), q.Get("fileId"), q.Get("referenceObjId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DetailsResponse{FileDetails: rec})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconcile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// fail writes the error response for a service error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, files.ErrMissingParameter), errors.Is(err, files.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, files.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, files.ErrSourceMissing), errors.Is(err, files.ErrDestinationConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  status,
		"message": message,
	})
}
