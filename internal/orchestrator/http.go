package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/archive"
	"github.com/local/pdfsplit/internal/render"
	"github.com/local/pdfsplit/internal/split"
	"github.com/local/pdfsplit/internal/storage"
)

// HTTP is the collaborator boundary: it accepts a document, an output
// format and a name list, and hands back the archive or an error. All
// presentation (forms, progress display, download buttons) lives
// outside this service.
type HTTP struct {
	svc         *Service
	maxUploadMB int64
}

func NewHTTP(svc *Service, maxUploadMB int64) *HTTP {
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &HTTP{svc: svc, maxUploadMB: maxUploadMB}
}

func (h *HTTP) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/process_upload", h.handleProcessUpload)
	mux.HandleFunc("/process_ref", h.handleProcessRef)
	mux.HandleFunc("/progress/", h.handleProgress)
}

// handleProcessUpload accepts multipart/form-data: file (PDF),
// output_format (pdf|jpg), chunk_size, names (free text, one name per
// line). Processing is synchronous; the archive streams back in the
// response.
func (h *HTTP) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	// Stage the upload; the rendering backend needs a real path.
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage upload")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "cannot stage upload")
		return
	}
	_ = tmp.Close()

	req := Request{
		ID:        uuid.NewString(),
		SourceRef: tmp.Name(),
		Format:    strings.ToLower(r.FormValue("output_format")),
		ChunkSize: parseChunkSize(r.FormValue("chunk_size")),
		Names:     split.ParseNames(r.FormValue("names")),
	}
	log.Info().Str("request_id", req.ID).Str("file", hdr.Filename).Str("format", req.Format).Msg("upload request received")

	res, err := h.svc.Process(r.Context(), req)
	if err != nil {
		writeProcessError(w, req.ID, err)
		return
	}
	defer res.Cleanup()

	h.streamArchive(w, r, res)
}

type refRequest struct {
	FileRef      string `json:"file_ref"`
	OutputFormat string `json:"output_format"`
	ChunkSize    int    `json:"chunk_size"`
	Names        string `json:"names"`
	Password     string `json:"password,omitempty"`
}

type refResponse struct {
	RequestID  string `json:"request_id"`
	ArchiveRef string `json:"archive_ref"`
	Units      int    `json:"units"`
	TotalPages int    `json:"total_pages"`
}

// handleProcessRef accepts a JSON reference to the source document
// (file://, http(s):// or s3://). For s3:// sources the archive is
// uploaded next to the source object and its locator returned; for all
// other refs the archive streams back directly.
func (h *HTTP) handleProcessRef(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var in refRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.FileRef == "" {
		writeError(w, http.StatusBadRequest, "missing file_ref")
		return
	}

	req := Request{
		ID:        uuid.NewString(),
		SourceRef: in.FileRef,
		Format:    strings.ToLower(in.OutputFormat),
		ChunkSize: in.ChunkSize,
		Names:     split.ParseNames(in.Names),
		Password:  in.Password,
	}
	log.Info().Str("request_id", req.ID).Str("ref", in.FileRef).Str("format", req.Format).Msg("ref request received")

	res, err := h.svc.Process(r.Context(), req)
	if err != nil {
		writeProcessError(w, req.ID, err)
		return
	}
	defer res.Cleanup()

	if !strings.HasPrefix(in.FileRef, "s3://") {
		h.streamArchive(w, r, res)
		return
	}

	archiveRef, err := uploadArchive(r.Context(), in.FileRef, in.Password, res)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("archive upload failed: %v", err))
		return
	}
	h.svc.MarkDelivered(r.Context(), req.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(refResponse{RequestID: req.ID, ArchiveRef: archiveRef, Units: res.Units, TotalPages: res.TotalPages})
}

func (h *HTTP) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/progress/")
	st, ok, err := h.svc.deps.Status.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"request_id": id,
		"state":      st.State,
		"progress":   st.Progress,
		"message":    st.Message,
		"start_time": st.Start,
		"end_time":   st.End,
		"metadata":   st.Metadata,
	})
}

func (h *HTTP) streamArchive(w http.ResponseWriter, r *http.Request, res *Result) {
	f, err := os.Open(res.ArchivePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive not readable")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=split_result_%s.zip", res.ID))
	w.Header().Set("Content-Length", strconv.FormatInt(res.ArchiveSize, 10))
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Str("request_id", res.ID).Msg("archive stream interrupted")
		return
	}
	h.svc.MarkDelivered(r.Context(), res.ID)
}

// uploadArchive stores the result next to the source object:
// s3://bucket/dir/doc.pdf -> s3://bucket/dir/doc_split.zip
func uploadArchive(ctx context.Context, sourceRef, password string, res *Result) (string, error) {
	bucket, key, err := storage.ParseRef(sourceRef)
	if err != nil {
		return "", err
	}
	resultKey := strings.TrimSuffix(key, ".pdf") + "_split.zip"

	cli, err := storage.NewS3Client(ctx, bucket)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(res.ArchivePath)
	if err != nil {
		return "", err
	}
	meta := map[string]string{
		"request_id":  res.ID,
		"units":       strconv.Itoa(res.Units),
		"total_pages": strconv.Itoa(res.TotalPages),
	}
	if err := cli.Upload(ctx, resultKey, data, "application/zip", password, meta); err != nil {
		return "", err
	}
	return "s3://" + bucket + "/" + resultKey, nil
}

func parseChunkSize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func writeProcessError(w http.ResponseWriter, id string, err error) {
	var mismatch *split.NameCountMismatchError
	var validation *split.ValidationError
	var packaging *archive.PackagingError
	switch {
	case errors.As(err, &mismatch):
		writeErrorDetail(w, http.StatusBadRequest, id, err.Error(), map[string]interface{}{
			"expected": mismatch.Expected, "actual": mismatch.Actual,
		})
	case errors.As(err, &validation):
		writeErrorDetail(w, http.StatusBadRequest, id, err.Error(), nil)
	case errors.Is(err, render.ErrRenderingUnavailable):
		writeErrorDetail(w, http.StatusServiceUnavailable, id, err.Error(), nil)
	case errors.As(err, &packaging):
		writeErrorDetail(w, http.StatusUnprocessableEntity, id, err.Error(), nil)
	default:
		writeErrorDetail(w, http.StatusInternalServerError, id, err.Error(), nil)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeErrorDetail(w, code, "", msg, nil)
}

func writeErrorDetail(w http.ResponseWriter, code int, id, msg string, detail map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{"error": msg}
	if id != "" {
		body["request_id"] = id
	}
	if detail != nil {
		body["detail"] = detail
	}
	_ = json.NewEncoder(w).Encode(body)
}
