package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/extract"
	"docsummary-backend/internal/llm"
	"docsummary-backend/internal/shared/server/middleware"
	"docsummary-backend/internal/shared/server/respond"
	"docsummary-backend/internal/users"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultMaxFiles       = 20
)

// Handler wires the upload endpoint to the service.
type Handler struct {
	Svc      *Service
	MaxBytes int64
	MaxFiles int
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxBytes int64, maxFiles int) *Handler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	return &Handler{Svc: svc, MaxBytes: maxBytes, MaxFiles: maxFiles}
}

// RegisterRoutes attaches the upload route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

type failedResponse struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Stage    Stage  `json:"stage"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds %d bytes", h.MaxBytes), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form with files and username is required", nil)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	var username string
	if vals := form.Value["username"]; len(vals) > 0 {
		username = vals[0]
	}
	middleware.SetUsername(c, username)

	headers := append(append([]*multipart.FileHeader{}, form.File["files"]...), form.File["files[]"]...)
	middleware.SetFileCount(c, len(headers))
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}
	if len(headers) > h.MaxFiles {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("at most %d files per upload", h.MaxFiles), nil)
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		content, err := readFile(fh)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file "+fh.Filename, nil)
			return
		}
		files = append(files, File{Name: fh.Filename, Content: content})
	}

	outcome, err := h.Svc.Ingest(c.Request.Context(), username, files)
	if err != nil {
		status, code := classify(err)
		respond.Error(c, status, code, message(err), details(err))
		return
	}

	docs := make([]documents.UploadedResponse, 0, len(outcome.Documents))
	for _, doc := range outcome.Documents {
		docs = append(docs, documents.ToUploaded(doc))
	}
	body := gin.H{
		"success":   true,
		"documents": docs,
	}
	if len(outcome.Failed) > 0 {
		failed := make([]failedResponse, 0, len(outcome.Failed))
		for _, fe := range outcome.Failed {
			_, code := classify(fe)
			failed = append(failed, failedResponse{
				Index:    fe.Index,
				Filename: fe.Filename,
				Stage:    fe.Stage,
				Code:     code,
				Message:  message(fe),
			})
		}
		body["failed"] = failed
	}
	respond.OK(c, body)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// classify maps a pipeline error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, users.ErrNotFound), errors.Is(err, documents.ErrUnknownUser):
		return http.StatusUnauthorized, "user_not_found"
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "extraction_failed"
	case errors.Is(err, llm.ErrSummarizationFailed):
		return http.StatusBadGateway, "summarization_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "storage_error"
	}
}

func message(err error) string {
	var fe *FileError
	if errors.As(err, &fe) {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			return fmt.Sprintf("%s: unsupported file format", fe.Filename)
		case errors.Is(err, extract.ErrExtractionFailed):
			return fmt.Sprintf("%s: could not extract text", fe.Filename)
		case errors.Is(err, llm.ErrSummarizationFailed):
			return fmt.Sprintf("%s: summarization failed", fe.Filename)
		default:
			return fmt.Sprintf("%s: %s failed", fe.Filename, fe.Stage)
		}
	}
	switch {
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, users.ErrNotFound), errors.Is(err, documents.ErrUnknownUser):
		return "user not found"
	default:
		return "failed to process upload"
	}
}

func details(err error) any {
	var fe *FileError
	if !errors.As(err, &fe) {
		return nil
	}
	d := gin.H{
		"index":    fe.Index,
		"filename": fe.Filename,
		"stage":    fe.Stage,
	}
	if errors.Is(err, extract.ErrUnsupportedFormat) {
		d["supported"] = extract.SupportedExtensions()
	}
	return d
}
