package rest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/heartmarshall/estate-backend/internal/adapter/storage/gridfs"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

// multipartOverhead is the slack allowed on top of the file size for
// boundaries and part headers.
const multipartOverhead = 64 << 10

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type fileStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (*gridfs.File, error)
}

// UploadHandler accepts image uploads and serves them back.
type UploadHandler struct {
	store    fileStore
	baseURL  string
	maxBytes int64
	log      *slog.Logger
}

// NewUploadHandler creates an UploadHandler. baseURL is the public prefix
// that file ids are appended to.
func NewUploadHandler(store fileStore, baseURL string, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		store:    store,
		baseURL:  baseURL,
		maxBytes: maxBytes,
		log:      logger.With("handler", "upload"),
	}
}

type uploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload handles POST /uploads (multipart form field "file").
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	part, err := filePart(r)
	if err != nil {
		h.uploadError(w, r, err)
		return
	}
	defer part.Close()

	br := bufio.NewReaderSize(part, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		h.uploadError(w, r, err)
		return
	}
	if len(head) == 0 {
		handleError(h.log, w, r, domain.NewValidationError("file", "empty file"))
		return
	}

	contentType := http.DetectContentType(head)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		handleError(h.log, w, r, domain.NewValidationError("file", "unsupported image type "+contentType))
		return
	}

	name := path.Base(part.FileName())
	if name == "." || name == "/" || name == "" {
		name = "upload" + ext
	}

	id, err := h.store.Save(r.Context(), name, contentType, &capReader{r: br, left: h.maxBytes})
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "image uploaded",
		slog.String("id", id),
		slog.String("content_type", contentType),
	)
	writeData(w, http.StatusCreated, uploadResponse{ID: id, URL: h.baseURL + "/" + id})
}

// Serve handles GET /uploads/{id}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		h.log.WarnContext(r.Context(), "stream upload", slog.String("error", err.Error()))
	}
}

func (h *UploadHandler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), errors.Is(err, errFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, errNoFilePart), errors.Is(err, http.ErrNotMultipart):
		handleError(h.log, w, r, domain.NewValidationError("file", "multipart field \"file\" is required"))
	default:
		handleError(h.log, w, r, err)
	}
}

var (
	errNoFilePart   = errors.New("no file part")
	errFileTooLarge = errors.New("file too large")
)

// filePart returns the first multipart part named "file" without
// buffering the body.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

// capReader fails with errFileTooLarge once more than left bytes were read,
// so the store aborts the upload instead of keeping a truncated file.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, errFileTooLarge
	}
	return n, err
}
