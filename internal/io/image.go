package ioutils

import (
	"bytes"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"os"

	"golang.org/x/image/draw"
)

// ImageService provides image processing operations for song backgrounds.
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Shrink bg.jpg so neither side exceeds 1920 pixels
//	changed, err := svc.ShrinkJPEGFile("Song/bg.jpg", 1920)
type ImageService struct {
	// Quality is the JPEG encoding quality. Default: 90
	Quality int
}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{Quality: 90}
}

// Dimensions returns the width and height of an encoded image without
// decoding its pixels.
func (s *ImageService) Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved. If the image is already smaller than the
// maximum dimensions, it will still be processed (re-encoded as JPEG).
//
// Returns the resized image as JPEG-encoded bytes.
//
// The Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// Resize to fit within 1920x1080, maintaining aspect ratio
//	resized, err := svc.ResizeImage(imageData, 1920, 1080)
//	// A 3840x2160 image becomes 1920x1080
func (s *ImageService) ResizeImage(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.quality()}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ShrinkJPEGFile downscales the JPEG at path in place when either side is
// larger than maxSide. It reports whether the file was rewritten.
func (s *ImageService) ShrinkJPEGFile(path string, maxSide int) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	width, height, err := s.Dimensions(data)
	if err != nil {
		return false, err
	}
	if width <= maxSide && height <= maxSide {
		return false, nil
	}

	resized, err := s.ResizeImage(data, maxSide, maxSide)
	if err != nil {
		return false, err
	}
	if err := WriteFile(path, resized); err != nil {
		return false, err
	}
	return true, nil
}

// fitWithin scales (width, height) down to fit the bounds, keeping the ratio.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		width = int(float64(maxHeight) * ratio)
		height = maxHeight
	} else {
		// Width is the limiting factor
		height = int(float64(maxWidth) / ratio)
		width = maxWidth
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

func (s *ImageService) quality() int {
	if s.Quality <= 0 || s.Quality > 100 {
		return 90
	}
	return s.Quality
}
