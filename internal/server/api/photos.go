package api

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

// DefaultMaxPhotoBytes bounds a single upload.
const DefaultMaxPhotoBytes = 16 << 20

// PhotoURLPrefix is where uploaded files are served from.
const PhotoURLPrefix = "/photos/"

var errNotImage = errors.New("file is not a supported image")

// PhotoHandler lists and accepts photo uploads. Accepted photos are saved
// to disk, recorded in the database and added to the scene.
type PhotoHandler struct {
	photos   *store.PhotoRepository
	state    StateStore
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler writing files into dir.
func NewPhotoHandler(photos *store.PhotoRepository, s StateStore, dir string, logger *slog.Logger) *PhotoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoHandler{
		photos:   photos,
		state:    s,
		dir:      dir,
		maxBytes: DefaultMaxPhotoBytes,
		logger:   logger,
	}
}

type photoResponse struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	AspectRatio float64 `json:"aspect_ratio"`
	CreatedAt   string  `json:"created_at"`
}

type listPhotosResponse struct {
	Photos []photoResponse `json:"photos"`
}

func toPhotoResponse(p *store.Photo) photoResponse {
	return photoResponse{
		ID:          p.ID,
		URL:         p.URL,
		AspectRatio: p.AspectRatio,
		CreatedAt:   p.CreatedAt.Format(timeLayout),
	}
}

// ServeHTTP handles GET and POST /api/photos.
func (h *PhotoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.upload(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PhotoHandler) list(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	response := listPhotosResponse{Photos: make([]photoResponse, 0, len(photos))}
	for _, p := range photos {
		response.Photos = append(response.Photos, toPhotoResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

// upload handles a multipart form with the image in field "photo".
func (h *PhotoHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read photo")
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Photo too large")
		return
	}

	aspect, ext, err := inspectImage(data)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	id := uuid.New().String()
	name := id + ext
	path := filepath.Join(h.dir, name)

	if err := os.MkdirAll(h.dir, 0755); err != nil {
		h.logger.Error("failed to create photo dir", slog.String("dir", h.dir), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to store photo")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		h.logger.Error("failed to write photo", slog.String("path", path), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to store photo")
		return
	}

	photo := &store.Photo{
		ID:          id,
		URL:         PhotoURLPrefix + name,
		FilePath:    path,
		AspectRatio: aspect,
	}
	if err := h.photos.Create(photo); err != nil {
		os.Remove(path)
		h.logger.Error("failed to record photo", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to store photo")
		return
	}

	h.state.Dispatch(state.AddPhoto{Photo: state.Photo{
		ID:          photo.ID,
		URL:         photo.URL,
		AspectRatio: photo.AspectRatio,
	}})
	h.logger.Info("photo added", slog.String("id", id), slog.Float64("aspect_ratio", aspect))

	writeJSON(w, http.StatusCreated, toPhotoResponse(photo))
}

// inspectImage sniffs data, decodes its header and returns the width/height
// ratio with a file extension for the detected format.
func inspectImage(data []byte) (float64, string, error) {
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return 0, "", fmt.Errorf("%w: detected %s", errNotImage, ct)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", errNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, "", fmt.Errorf("%w: empty image", errNotImage)
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	return float64(cfg.Width) / float64(cfg.Height), ext, nil
}
