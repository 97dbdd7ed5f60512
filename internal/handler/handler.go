// Package handler exposes certificate extraction and client management
// over HTTP. Every response body is JSON.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"csf.practicafiscal.mx/internal/extractor"
	"csf.practicafiscal.mx/internal/pdftext"
	"csf.practicafiscal.mx/internal/store"
)

// maxUploadBytes caps certificate uploads; real certificates are a few
// hundred KB.
const maxUploadBytes = 16 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	log   *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(s *store.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: s, log: log}
}

// Routes registers all handlers on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/extract", h.Extract)
	mux.HandleFunc("/clients", h.Clients)
	mux.HandleFunc("/clients/", h.ClientByID)
}

// Extract runs extraction on an uploaded certificate and returns the
// structured result without persisting anything.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	runID := uuid.NewString()
	text, _, err := h.documentText(r)
	if err != nil {
		h.log.Warn("extract: unreadable document", "run", runID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := extractor.Extract(text)
	h.log.Info("extract",
		"run", runID,
		"taxpayerId", result.TaxpayerID,
		"activities", len(result.Activities),
		"regimes", len(result.Regimes),
		"obligations", len(result.Obligations))
	writeJSON(w, http.StatusOK, result)
}

// Clients handles the client collection: POST creates, GET lists.
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createClient(w, r)
	case http.MethodGet:
		h.listClients(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		TaxpayerID string `json:"taxpayerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	client, err := h.store.CreateClient(r.Context(),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.TaxpayerID))
	if err != nil {
		h.log.Error("create client", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create client")
		return
	}
	h.log.Info("client created", "client", client.ID, "taxpayerId", client.Data.TaxpayerID)
	writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		h.log.Error("list clients", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list clients")
		return
	}
	if clients == nil {
		clients = []store.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// ClientByID handles /clients/{id} and /clients/{id}/merge.
func (h *Handler) ClientByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/clients/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getClient(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteClient(w, r, id)
	case action == "merge" && r.Method == http.MethodPost:
		h.mergeClient(w, r, id)
	case action == "":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request, id string) {
	client, err := h.store.GetClient(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		h.log.Error("get client", "client", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load client")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.DeleteClient(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		h.log.Error("delete client", "client", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not delete client")
		return
	}
	h.log.Info("client deleted", "client", id)
	w.WriteHeader(http.StatusNoContent)
}

// mergeClient extracts an uploaded certificate and merges it into the
// client. When the certificate carries a taxpayer id that contradicts
// the stored one, nothing is merged and the conflict is reported with
// both values.
func (h *Handler) mergeClient(w http.ResponseWriter, r *http.Request, id string) {
	runID := uuid.NewString()

	client, err := h.store.GetClient(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		h.log.Error("merge: load client", "run", runID, "client", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load client")
		return
	}

	text, defRegime, err := h.documentText(r)
	if err != nil {
		h.log.Warn("merge: unreadable document", "run", runID, "client", id, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := extractor.Extract(text)

	if err := extractor.CheckTaxpayerID(result.TaxpayerID, client.Data.TaxpayerID); err != nil {
		var mErr *extractor.MismatchError
		if errors.As(err, &mErr) {
			h.log.Warn("merge: taxpayer id mismatch",
				"run", runID, "client", id,
				"extracted", mErr.Extracted, "known", mErr.Known)
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":     "taxpayer id mismatch",
				"extracted": mErr.Extracted,
				"known":     mErr.Known,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The caller may pin the default regime by index; otherwise the
	// first regime still open (no end date) is marked. An out-of-range
	// index marks none.
	idx := defaultRegimeIndex(result.Regimes)
	if defRegime != nil {
		idx = *defRegime
	}

	merged, err := h.store.MergeExtraction(r.Context(), id, result, idx)
	if err != nil {
		h.log.Error("merge", "run", runID, "client", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not merge extraction")
		return
	}

	h.log.Info("merge",
		"run", runID,
		"client", id,
		"taxpayerId", merged.Data.TaxpayerID,
		"activities", len(merged.Data.Activities),
		"regimes", len(merged.Data.Regimes),
		"obligations", len(merged.Data.Obligations))
	writeJSON(w, http.StatusOK, merged)
}

// defaultRegimeIndex picks the client's working regime: the first one
// still open (no end date), or none.
func defaultRegimeIndex(regimes []extractor.Regime) int {
	for i, r := range regimes {
		if r.EndDate == "" {
			return i
		}
	}
	return -1
}

// documentText pulls the certificate text out of the request: either a
// multipart upload with a "pdf" file field, or a JSON body with a
// "text" field for already-extracted text. Both forms may carry an
// optional defaultRegime index (a form value, or a JSON field); nil
// means the caller did not choose one.
func (h *Handler) documentText(r *http.Request) (string, *int, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		file, _, err := r.FormFile("pdf")
		if err != nil {
			return "", nil, fmt.Errorf("missing pdf upload: %w", err)
		}
		defer file.Close()

		var defRegime *int
		if v := r.FormValue("defaultRegime"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", nil, fmt.Errorf("invalid defaultRegime: %w", err)
			}
			defRegime = &n
		}

		src, err := pdftext.ReadPDF(file)
		if err != nil {
			return "", nil, err
		}
		text, err := src.Text()
		return text, defRegime, err
	}

	var req struct {
		Text          string `json:"text"`
		DefaultRegime *int   `json:"defaultRegime"`
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", nil, fmt.Errorf("expected multipart pdf upload or JSON with a text field")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", nil, fmt.Errorf("empty document text")
	}
	return req.Text, req.DefaultRegime, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
