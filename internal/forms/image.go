package forms

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// maxImageSide bounds width and height before the full decode allocates pixels.
const maxImageSide = 10000

// Upload is an image file submitted with a form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
	Format      string
	Width       int
	Height      int
}

// ReadUpload loads a multipart file, reading at most limit+1 bytes so
// oversized files are detected without buffering them whole.
func ReadUpload(fh *multipart.FileHeader, limit int64) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	return &Upload{
		Filename:    filepath.Base(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// inspectImage validates that u holds a decodable gif, jpeg, png or webp
// image no larger than maxBytes and records its format and size.
func inspectImage(u *Upload, maxBytes int64) string {
	if len(u.Content) == 0 {
		return MsgEmptyFile
	}
	if maxBytes > 0 && int64(len(u.Content)) > maxBytes {
		return fmt.Sprintf(MsgImageTooLarge, maxBytes/(1024*1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(u.Content)) {
		return MsgInvalidImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(u.Content))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > maxImageSide || cfg.Height > maxImageSide {
		return MsgInvalidImage
	}
	// the header alone does not prove the pixel data is intact
	if _, _, err := image.Decode(bytes.NewReader(u.Content)); err != nil {
		return MsgInvalidImage
	}
	if provided := normalizeContentType(u.ContentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return MsgInvalidImage
	}

	u.Format = format
	u.Width = cfg.Width
	u.Height = cfg.Height
	return ""
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == detected {
		return true
	}
	return (provided == "image/jpg" && detected == "image/jpeg") || (provided == "image/jpeg" && detected == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
