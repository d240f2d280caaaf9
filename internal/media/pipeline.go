// Package media prepares attached files for upload to object storage.
//
// Images are decoded, downscaled to a maximum edge, and re-encoded as WebP
// before upload; video and other media pass through untouched. Object keys
// are derived from the upload time plus a random suffix and the original
// extension, so concurrent uploads never collide.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"campusnet/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxEdge is the longest edge an uploaded image is scaled down to.
	MaxEdge = 2048
	// WebPQuality is the encoding quality for re-encoded images.
	WebPQuality = 70
	// MaxUploadBytes is the largest file accepted for upload.
	MaxUploadBytes = 10 * 1024 * 1024
)

// Upload is a prepared object ready for storage.
type Upload struct {
	Key         string
	Data        []byte
	ContentType string
	Kind        models.MediaKind
}

// Prepare validates and converts a file for upload. filename supplies the
// original extension used in the object key.
func Prepare(filename string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("No file attached")
	}
	if len(data) > MaxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxUploadBytes/(1024*1024)))
	}

	contentType := http.DetectContentType(data)
	kind := KindOf(contentType)
	if kind == "" {
		return nil, models.NewValidationError("Unsupported media type")
	}

	if kind == models.MediaImage {
		converted, err := reencodeImage(data)
		if err != nil {
			return nil, models.NewValidationError("Invalid image file")
		}
		return &Upload{
			Key:         objectKey(".webp"),
			Data:        converted,
			ContentType: "image/webp",
			Kind:        models.MediaImage,
		}, nil
	}

	return &Upload{
		Key:         objectKey(filepath.Ext(filename)),
		Data:        data,
		ContentType: contentType,
		Kind:        models.MediaVideo,
	}, nil
}

// KindOf maps a content type to a media kind, or "" when unsupported.
func KindOf(contentType string) models.MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return models.MediaVideo
	default:
		return ""
	}
}

func objectKey(ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}

func reencodeImage(data []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	scaled := resizeToFit(decoded, MaxEdge, MaxEdge)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, scaled, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
