package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"docchat/pkg/gateway"
	"docchat/pkg/logger"
	"docchat/pkg/utils"
)

// maxUploadBytes bounds in-flight upload parsing, not backend limits.
const maxUploadBytes = 64 << 20

type documentHandlers struct {
	gw gateway.Client
}

// RegisterDocuments registers document upload and summary routes.
func RegisterDocuments(r *mux.Router, gw gateway.Client) {
	h := &documentHandlers{gw: gw}
	r.HandleFunc("/documents", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/summaries", h.summarize).Methods(http.MethodPost)
}

// upload handles POST /documents: one multipart file under "files" (the
// backend's field name) or "file", streamed to the gateway for ingestion.
func (h *documentHandlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	var field string
	for _, name := range []string{"files", "file"} {
		if fhs := r.MultipartForm.File[name]; len(fhs) > 0 {
			field = name
			break
		}
	}
	if field == "" {
		utils.JSONError(w, http.StatusBadRequest, "no file provided")
		return
	}
	fh := r.MultipartForm.File[field][0]
	f, err := fh.Open()
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unreadable file")
		return
	}
	defer f.Close()

	res, err := h.gw.Ingest(r.Context(), fh.Filename, f)
	if err != nil {
		utils.JSONError(w, gatewayStatus(err), err.Error())
		return
	}
	logger.Info("upload_forwarded", "file", fh.Filename, "chunks", res.ChunksCreated)
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

// summarize handles POST /summaries?mode=<short|medium|detailed>. The
// backend summarizes what it already holds from prior uploads; nothing is
// re-submitted.
func (h *documentHandlers) summarize(w http.ResponseWriter, r *http.Request) {
	mode := gateway.SummaryMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = gateway.SummaryMedium
	}
	if !mode.Valid() {
		utils.JSONError(w, http.StatusBadRequest, "invalid mode: want short, medium or detailed")
		return
	}
	sum, err := h.gw.Summarize(r.Context(), mode)
	if err != nil {
		utils.JSONError(w, gatewayStatus(err), err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, sum)
}
