// Package cover декодирует обложки из тегов в RGBA буферы
package cover

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // регистрация декодера GIF
	_ "image/jpeg" // регистрация декодера JPEG
	_ "image/png"  // регистрация декодера PNG

	_ "golang.org/x/image/bmp"  // регистрация декодера BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // регистрация декодера TIFF
	_ "golang.org/x/image/webp" // регистрация декодера WebP

	"github.com/hazadus/go-turntable/internal/failure"
)

// Decode декодирует картинку любого зарегистрированного формата и
// перекладывает пиксели в RGBA буфер с началом координат в (0, 0)
func Decode(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("пустые данные обложки: %w", failure.ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования обложки: %w: %v", failure.ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("обложка %s нулевого размера: %w", format, failure.ErrUnsupportedFormat)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// Thumbnail масштабирует картинку в рамку width x height с сохранением пропорций
func Thumbnail(src image.Image, width, height int) *image.RGBA {
	bounds := src.Bounds()
	if width <= 0 || height <= 0 || bounds.Empty() {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scale := min(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	w := max(1, int(float64(bounds.Dx())*scale))
	h := max(1, int(float64(bounds.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
