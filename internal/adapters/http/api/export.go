package api

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/okian/childhealth/internal/adapters/export"
)

// ExportHandler streams export files.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export?format=csv|pdf requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if !allow(w, r, op, http.MethodGet) {
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}

	// Render fully before writing headers so failures still get a JSON error.
	var buf bytes.Buffer
	res, err := h.deps.Export(r.Context(), &buf, f)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.Header().Set("X-Record-Count", strconv.Itoa(res.Records))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
