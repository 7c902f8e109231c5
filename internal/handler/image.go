package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereview/internal/service"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 5 << 20

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage handles POST /movie/:movieId/image.  The multipart form
// carries the file as `image` and `kind` as poster (default) or backdrop.
func (h *MovieHandler) UploadImage(c echo.Context) error {
	if h.Images == nil {
		return message(c, http.StatusServiceUnavailable, "Image uploads are not configured")
	}
	id, ok := pathID(c, "movieId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	kind := service.ImageKind(strings.ToLower(strings.TrimSpace(c.FormValue("kind"))))
	if kind == "" {
		kind = service.ImagePoster
	}
	if kind != service.ImagePoster && kind != service.ImageBackdrop {
		return message(c, http.StatusBadRequest, "kind must be poster or backdrop")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return message(c, http.StatusBadRequest, "Please provide an image file.")
	}
	if fh.Size > MaxImageBytes {
		return message(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Image must be at most %d MB.", MaxImageBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "open upload", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return h.fail(c, "read upload", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageTypes[contentType]
	if !ok {
		return message(c, http.StatusUnsupportedMediaType, "Image must be JPEG, PNG, GIF or WebP.")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return h.fail(c, "rewind upload", err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	// no orphaned objects for unknown movies
	if _, err := h.Catalog.Get(ctx, id); err != nil {
		return h.fail(c, "upload image", err)
	}
	key := fmt.Sprintf("movies/%s/%s-%d%s", id.Hex(), kind, time.Now().UnixNano(), ext)
	url, err := h.Images.Put(ctx, key, f, fh.Size, contentType)
	if err != nil {
		return h.fail(c, "upload image", err)
	}
	m, err := h.Catalog.SetImage(ctx, id, kind, url)
	if err != nil {
		return h.fail(c, "upload image", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Image uploaded successfully", "movie": m})
}
