// Package avatar проверяет и нормализует загружаемые аватары:
// любое jpg/png приводится к PNG 250x250.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
)

const (
	MaxUploadBytes = 1_000_000
	Size           = 250
	MimeType       = "image/png"
)

var (
	ErrUnsupportedMediaType = errors.New("please upload an image file")
	ErrFileTooLarge         = errors.New("file too large")
	ErrInvalidImage         = errors.New("invalid image data")
)

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ValidateUpload проверяет имя и размер файла до чтения содержимого
func ValidateUpload(filename string, size int64) error {
	if !imageExt.MatchString(filepath.Base(filename)) {
		return ErrUnsupportedMediaType
	}
	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}

// SniffContent отвергает файлы, которые только называются картинками
func SniffContent(data []byte) error {
	mtype := mimetype.Detect(data)
	if !allowedMimeTypes[mtype.String()] {
		return ErrUnsupportedMediaType
	}
	return nil
}

// Transform декодирует изображение, растягивает его до Size x Size и кодирует в PNG
func Transform(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
