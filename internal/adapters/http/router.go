// Package httpadapter exposes the wardrobe over HTTP: item capture and
// editing, outfit composition, virtual try-on and the stored images.
package httpadapter

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/ekuzmina/wardrobe-assistant/internal/config"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/store"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/usecase"
	"github.com/ekuzmina/wardrobe-assistant/internal/observability/metrics"
)

type Router struct {
	cfg      config.Config
	wardrobe *usecase.WardrobeUseCase
	capture  *usecase.CaptureItemUseCase
	outfits  *usecase.ComposeOutfitUseCase
	tryon    *usecase.TryOnUseCase
	export   *usecase.ExportUseCase
	storage  ports.ObjectStorage
	metrics  *metrics.HTTPMetrics
	log      *slog.Logger
}

func NewRouter(
	cfg config.Config,
	wardrobe *usecase.WardrobeUseCase,
	capture *usecase.CaptureItemUseCase,
	outfits *usecase.ComposeOutfitUseCase,
	tryon *usecase.TryOnUseCase,
	export *usecase.ExportUseCase,
	storage ports.ObjectStorage,
	httpMetrics *metrics.HTTPMetrics,
	log *slog.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		wardrobe: wardrobe,
		capture:  capture,
		outfits:  outfits,
		tryon:    tryon,
		export:   export,
		storage:  storage,
		metrics:  httpMetrics,
		log:      log,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/items", rt.items)
	mux.HandleFunc("/v1/items/stats", rt.itemStats)
	mux.HandleFunc("/v1/items/export", rt.itemExport)
	mux.HandleFunc("/v1/items/", rt.itemByID)
	mux.HandleFunc("/v1/outfits", rt.outfitCollection)
	mux.HandleFunc("/v1/outfits/", rt.outfitByID)
	mux.HandleFunc("/v1/tryon", rt.tryOn)
	mux.HandleFunc("/v1/tryon/history", rt.tryOnHistory)
	mux.HandleFunc("/v1/tryon/records", rt.tryOnRecords)
	mux.HandleFunc("/v1/images/", rt.serveImage)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 0)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler, rt.log)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) items(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rt.wardrobe.ListItems(r.Context(), filtersFromQuery(r)))
	case http.MethodPost:
		rt.captureItem(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) captureItem(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "capture", err))
		return
	}
	defer file.Close()

	item, err := rt.capture.AddFromImage(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordCapture()
	// 202: enrichment is still running behind the returned placeholder.
	writeJSON(w, http.StatusAccepted, item)
}

func (rt *Router) itemStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, rt.wardrobe.Stats(r.Context()))
}

func (rt *Router) itemExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	blob, err := rt.export.ExportXLSX(r.Context(), filtersFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordExport()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="wardrobe.xlsx"`)
	_, _ = w.Write(blob)
}

func (rt *Router) itemByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/items/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := rt.wardrobe.GetItem(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		var edit domain.ClothingItem
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		edit.ID = id
		item, err := rt.wardrobe.UpdateItem(r.Context(), edit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := rt.wardrobe.DeleteItem(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) outfitCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rt.outfits.List(r.Context()))
	case http.MethodPost:
		var draft domain.OutfitDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		outfit, err := rt.outfits.Save(r.Context(), draft)
		if err != nil {
			writeError(w, err)
			return
		}
		rt.metrics.RecordOutfitSaved()
		writeJSON(w, http.StatusCreated, outfit)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) outfitByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/outfits/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		outfit, err := rt.outfits.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outfit)
	case http.MethodPut:
		var outfit domain.Outfit
		if err := json.NewDecoder(r.Body).Decode(&outfit); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		outfit.ID = id
		updated, err := rt.outfits.Update(r.Context(), outfit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := rt.outfits.Remove(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) tryOn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.TryOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := rt.tryon.TryOn(r.Context(), req)
	rt.metrics.RecordTryOn(string(req.Type), err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (rt *Router) tryOnHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		history, err := rt.tryon.History(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	case http.MethodDelete:
		if err := rt.tryon.ClearHistory(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) tryOnRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.tryon.DeleteRecords(r.Context(), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) serveImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/v1/images/")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image key is required"})
		return
	}

	rc, err := rt.storage.Open(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, rc); err != nil {
		rt.log.Warn("image_stream_aborted", "key", key, "error", err)
	}
}

func filtersFromQuery(r *http.Request) store.Filters {
	f := store.Filters{Category: r.URL.Query().Get("category")}
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
