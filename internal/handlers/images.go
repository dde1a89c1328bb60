package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khadimfall/magal-events/pkg/errors"
	"github.com/khadimfall/magal-events/pkg/response"
)

// maxImageSize bounds uploaded image payloads to 5 MiB.
const maxImageSize = 5 << 20

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ImageHandler persists uploaded images and serves them back as static files.
type ImageHandler struct {
	dir string
}

// NewImageHandler constructs an image handler storing files under dir.
func NewImageHandler(dir string) (*ImageHandler, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("image handler: upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image handler: create upload directory: %w", err)
	}
	return &ImageHandler{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (h *ImageHandler) Dir() string {
	return h.dir
}

// POST /api/images (admin, multipart field "image")
func (h *ImageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, errors.NewBadRequest("image file is required"))
		return
	}
	if file.Size > maxImageSize {
		response.Error(c, errors.NewBadRequest("image exceeds the 5MB size limit"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		response.Error(c, errors.NewBadRequest("image must be a jpg, jpeg, png, or webp file"))
		return
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		response.Error(c, errors.Wrap(err, "failed to store image"))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"filename": name,
		"url":      "/uploads/" + name,
	})
}

// DELETE /api/images/:name (admin)
func (h *ImageHandler) Delete(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || name != filepath.Base(name) {
		response.Error(c, errors.NewBadRequest("invalid image name"))
		return
	}
	if _, ok := allowedImageExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		response.Error(c, errors.NewBadRequest("invalid image name"))
		return
	}

	err := os.Remove(filepath.Join(h.dir, name))
	if os.IsNotExist(err) {
		response.Error(c, errors.New("IMAGE_NOT_FOUND", "Image not found", http.StatusNotFound))
		return
	}
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to delete image"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
