package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// CoverOptions controls how cover art is prepared before embedding.
type CoverOptions struct {
	// Resize shrinks covers larger than MaxSize on either side.
	Resize bool

	// MaxSize is the maximum width and height in pixels.
	MaxSize int

	// ConvertToJPEG re-encodes covers that are not resized as JPEG.
	ConvertToJPEG bool
}

// ImageService prepares cover art for embedding in ID3 tags.
//
//	svc := NewImageService()
//	cover, err := svc.PrepareCover(ctx, imageData, CoverOptions{Resize: true, MaxSize: 1000})
//
// JPEG, PNG, GIF and WebP input are accepted; output of ResizeImage and
// ConvertToJPEG is always JPEG.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// jpegQuality is used for every re-encoded cover.
const jpegQuality = 90

// ResizeImage scales data down to fit within maxWidth x maxHeight, keeping
// the aspect ratio, and returns it as JPEG. Smaller images keep their size
// but are re-encoded. A 1500x1000 cover with a 1000x1000 box becomes
// 1000x666.
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	bounds := src.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes data as JPEG without changing its size.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin returns width and height scaled down to the box, never below
// one pixel. Sizes already inside the box are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width, height = int(float64(maxHeight)*ratio), maxHeight
		} else {
			width, height = maxWidth, int(float64(maxWidth)/ratio)
		}
	}
	return max(width, 1), max(height, 1)
}

// PrepareCover applies opts to downloaded cover art.
//
// Images within MaxSize are not resized. When neither step applies the
// input is returned as is.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, opts CoverOptions) ([]byte, error) {
	if opts.Resize && opts.MaxSize > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if cfg.Width > opts.MaxSize || cfg.Height > opts.MaxSize {
			return s.ResizeImage(ctx, data, opts.MaxSize, opts.MaxSize)
		}
	}
	if opts.ConvertToJPEG {
		return s.ConvertToJPEG(ctx, data)
	}
	return data, nil
}
