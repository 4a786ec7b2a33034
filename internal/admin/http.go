// Package admin implements the synchronous operator surface: manual
// register/retire/purge/rotate, plus a read-only lookup and health
// endpoint. It carries no provisioning design weight and is kept thin,
// mirroring the teacher's own chi-based HTTP shell.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/internal/reconcile"
)

// Purger is an optional capability a Repository implementation may
// expose for the admin façade's purge operation. The core itself never
// deletes records, so this sits outside the provisioning.Repository
// contract entirely; a repository that doesn't implement it simply
// can't be purged through this endpoint.
type Purger interface {
	Purge(ctx context.Context, contentID string) error
}

// Handler exposes the admin REST surface over a Provisioner, the
// Repository directly (for lookup/retire/purge), and the Engine
// client (for key rotation).
type Handler struct {
	repo        provisioning.Repository
	provisioner *provisioning.Provisioner
	engine      provisioning.EngineClient
	log         *zap.Logger
	router      chi.Router
}

// New constructs a Handler and wires its routes.
func New(repo provisioning.Repository, provisioner *provisioning.Provisioner, engine provisioning.EngineClient, log *zap.Logger) *Handler {
	h := &Handler{repo: repo, provisioner: provisioner, engine: engine, log: log}
	h.buildRouter()
	return h
}

func (h *Handler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1/channels/{contentId}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/register", h.handleRegister)
		r.Post("/retire", h.handleRetire)
		r.Post("/rotate-key", h.handleRotateKey)
		r.Get("/replay-message", h.handleReplayMessage)
		r.Delete("/", h.handlePurge)
	})

	h.router = r
}

// Router exposes the configured chi router.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")
	record, err := h.repo.FindByContentID(r.Context(), contentID)
	if err != nil {
		h.log.Error("admin get failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no channel for contentId")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleRegister bypasses the worker and provisions an upload event
// built from the request body (contentId from the URL path,
// durationSeconds defaulting to 1) through the provisioner directly.
// The stored record is not used to fill the event; the provisioner's
// idempotency gate still returns a ready record with a matching
// checksum unchanged.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	var body provisioning.UploadPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	body.ContentID = contentID
	if body.DurationSeconds <= 0 {
		body.DurationSeconds = 1
	}

	event := provisioning.UploadCompletedEvent{
		EventID:    "admin-register-" + contentID,
		EventType:  provisioning.EventType,
		OccurredAt: time.Now().UTC(),
		Data:       body,
	}

	record, err := h.provisioner.ProvisionFromUpload(r.Context(), event)
	if err != nil {
		h.log.Error("admin register failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "provisioning failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleReplayMessage returns the base64 pub/sub wire payload for a
// stored record, so an operator can manually republish it to the
// upload-events topic instead of forcing a synchronous re-provision
// through handleRegister.
func (h *Handler) handleReplayMessage(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	record, err := h.repo.FindByContentID(r.Context(), contentID)
	if err != nil {
		h.log.Error("admin replay-message lookup failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no channel for contentId")
		return
	}

	event := provisioning.UploadCompletedEvent{
		EventID:    "admin-replay-" + contentID,
		EventType:  provisioning.EventType,
		OccurredAt: time.Now().UTC(),
		Data: provisioning.UploadPayload{
			ContentID:          record.ContentID,
			ContentType:        record.Classification,
			SourceURI:          record.SourceAssetURI,
			Checksum:           record.Checksum,
			IngestRegion:       record.IngestRegion,
			DurationSeconds:    1,
			DRM:                record.DRM,
			AvailabilityWindow: record.AvailabilityWindow,
			GeoRestrictions:    record.GeoRestrictions,
		},
	}

	message, err := reconcile.EncodeReplayMessage(event)
	if err != nil {
		h.log.Error("admin replay-message encode failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	record, err := h.repo.FindByContentID(r.Context(), contentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no channel for contentId")
		return
	}

	record.Status = provisioning.StatusRetired
	record.LastProvisionedAt = time.Now().UTC()
	if err := h.repo.Upsert(r.Context(), *record); err != nil {
		h.log.Error("admin retire failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "retire failed")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	record, err := h.repo.FindByContentID(r.Context(), contentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no channel for contentId")
		return
	}

	if err := h.engine.RotateIngestKey(r.Context(), record.ChannelID); err != nil {
		h.log.Error("admin rotate key failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rotate key failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rotated"})
}

// handlePurge is the one place a record may be removed: the core
// itself never deletes, so this is an admin-only escape hatch
// available only when the configured repository implements Purger.
func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	purger, ok := h.repo.(Purger)
	if !ok {
		writeError(w, http.StatusNotImplemented, "repository does not support purge")
		return
	}

	record, err := h.repo.FindByContentID(r.Context(), contentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no channel for contentId")
		return
	}

	if err := purger.Purge(r.Context(), contentID); err != nil {
		h.log.Error("admin purge failed", zap.String("contentId", contentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "purge failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
