package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/archive"
	"github.com/local/pdfsplit/internal/fetch"
	"github.com/local/pdfsplit/internal/filetype"
	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/render"
	"github.com/local/pdfsplit/internal/split"
	"github.com/local/pdfsplit/internal/store"
)

// Output formats accepted at the collaborator boundary.
const (
	FormatPDF = "pdf"
	FormatJPG = "jpg"
)

// StatusStore records request state transitions for /progress.
type StatusStore interface {
	Set(ctx context.Context, id string, st store.Status) error
	Get(ctx context.Context, id string) (store.Status, bool, error)
}

// Dependencies wires the service's collaborators.
type Dependencies struct {
	Status   StatusStore
	Renderer render.Renderer
}

// Service processes split/convert requests one at a time, start to
// finish, with no retries: any failure aborts the remaining units and
// is reported synchronously.
type Service struct {
	deps       Dependencies
	renderOpts render.Options
	detector   *filetype.Detector

	// serializes requests; this system processes small user-triggered
	// batches with no concurrent unit generation
	mu sync.Mutex
}

// Request carries everything one processing run needs. The core holds
// no state between requests.
type Request struct {
	ID        string
	SourceRef string // local path, file://, http(s):// or s3://
	Format    string // pdf|jpg
	ChunkSize int    // meaningful for pdf only; forced to 1 for jpg
	Names     []string
	Password  string // optional, for encrypted s3 objects
}

// Result is the outcome of a successful run. The archive lives inside
// a request-scoped working directory; Cleanup removes it and must be
// called once the archive has been delivered.
type Result struct {
	ID          string
	ArchivePath string
	ArchiveSize int64
	TotalPages  int
	Units       int

	workDir     string
	cleanupOnce sync.Once
	cleanupErr  error
}

// Cleanup removes the request's working directory, archive included.
func (r *Result) Cleanup() error {
	r.cleanupOnce.Do(func() {
		r.cleanupErr = os.RemoveAll(r.workDir)
	})
	return r.cleanupErr
}

func New(deps Dependencies, renderOpts render.Options) *Service {
	return &Service{deps: deps, renderOpts: renderOpts, detector: filetype.New()}
}

// Process runs one request through the full pipeline:
// resolve source -> validate -> plan -> split/rasterize -> package.
// On any failure the working directory is removed before returning; on
// success the caller owns delivery and Result.Cleanup.
func (s *Service) Process(ctx context.Context, req Request) (res *Result, retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	format := req.Format
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatJPG {
		return nil, s.fail(ctx, req.ID, format, start, &split.ValidationError{Message: fmt.Sprintf("unknown output format %q", req.Format)})
	}
	chunkSize := req.ChunkSize
	if format == FormatJPG {
		// one image per page, always
		chunkSize = 1
	}

	workDir, err := os.MkdirTemp("", "pdfsplit-*")
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, fmt.Errorf("create working dir: %w", err))
	}
	defer func() {
		if retErr != nil {
			_ = os.RemoveAll(workDir)
		}
	}()

	s.setStatus(ctx, req.ID, store.Status{State: store.StateIdle, Progress: 0, Message: "request received", Start: &start,
		Metadata: map[string]interface{}{"format": format, "source": req.SourceRef}})

	srcPath, err := fetch.Resolve(ctx, req.SourceRef, workDir, req.Password)
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}
	if err := s.detector.EnsurePDF(srcPath); err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}

	totalPages, err := split.PageCount(srcPath)
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}
	log.Info().Str("request_id", req.ID).Int("total_pages", totalPages).Str("format", format).Msg("source document opened")

	plan, err := split.Plan(totalPages, chunkSize, req.Names)
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}
	s.setStatus(ctx, req.ID, store.Status{State: store.StateValidated, Progress: 10, Message: "plan validated", Start: &start,
		Metadata: map[string]interface{}{"format": format, "total_pages": totalPages, "units": len(plan.Units)}})

	outDir := filepath.Join(workDir, "output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, s.fail(ctx, req.ID, format, start, fmt.Errorf("create output dir: %w", err))
	}

	s.setStatus(ctx, req.ID, store.Status{State: store.StateProcessing, Progress: 20, Message: "generating units", Start: &start,
		Metadata: map[string]interface{}{"format": format, "total_pages": totalPages, "units": len(plan.Units)}})

	var files []string
	switch format {
	case FormatPDF:
		files, err = split.SplitPDF(ctx, srcPath, plan, outDir)
	case FormatJPG:
		files, err = render.RasterizeDocument(ctx, s.deps.Renderer, srcPath, totalPages, req.Names, outDir, s.renderOpts)
	}
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}

	archivePath := filepath.Join(workDir, "result.zip")
	if _, err := archive.Pack(files, archivePath); err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, s.fail(ctx, req.ID, format, start, err)
	}

	s.setStatus(ctx, req.ID, store.Status{State: store.StatePackaged, Progress: 90, Message: "archive packaged", Start: &start,
		Metadata: map[string]interface{}{"format": format, "total_pages": totalPages, "units": len(files), "archive_bytes": info.Size()}})

	metrics.ObserveRequest(format, "success", time.Since(start))
	metrics.AddUnits(format, len(files))
	metrics.ObserveArchive(info.Size())

	return &Result{
		ID:          req.ID,
		ArchivePath: archivePath,
		ArchiveSize: info.Size(),
		TotalPages:  totalPages,
		Units:       len(files),
		workDir:     workDir,
	}, nil
}

// MarkDelivered records the terminal success state once the caller has
// handed the archive over.
func (s *Service) MarkDelivered(ctx context.Context, id string) {
	st, ok, err := s.deps.Status.Get(ctx, id)
	if err != nil || !ok {
		st = store.Status{}
	}
	now := time.Now()
	st.State = store.StateDelivered
	st.Progress = 100
	st.Message = "archive delivered"
	st.End = &now
	s.setStatus(ctx, id, st)
}

// fail records the terminal failure state and returns err unchanged so
// callers can classify it.
func (s *Service) fail(ctx context.Context, id, format string, start time.Time, err error) error {
	now := time.Now()
	s.setStatus(ctx, id, store.Status{State: store.StateFailed, Progress: 0, Message: err.Error(), Start: &start, End: &now,
		Metadata: map[string]interface{}{"format": format}})
	metrics.ObserveRequest(format, resultLabel(err), time.Since(start))
	log.Error().Err(err).Str("request_id", id).Msg("request failed")
	return err
}

func resultLabel(err error) string {
	var mismatch *split.NameCountMismatchError
	var validation *split.ValidationError
	var packaging *archive.PackagingError
	switch {
	case errors.As(err, &mismatch), errors.As(err, &validation):
		return "invalid"
	case errors.Is(err, render.ErrRenderingUnavailable):
		return "unavailable"
	case errors.As(err, &packaging):
		return "empty"
	default:
		return "error"
	}
}

func (s *Service) setStatus(ctx context.Context, id string, st store.Status) {
	if s.deps.Status == nil || id == "" {
		return
	}
	if err := s.deps.Status.Set(ctx, id, st); err != nil {
		log.Warn().Err(err).Str("request_id", id).Msg("status update failed")
	}
}
