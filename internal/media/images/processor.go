package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// maxDimension caps the longest edge of stored images. Uploads larger
	// than this are downscaled; smaller ones are stored as-is.
	maxDimension = 1280

	// jpegQuality for re-encoded uploads.
	jpegQuality = 85
)

// Processor normalizes uploaded recipe images and stores them.
// Every upload is decoded, downscaled if oversized, and re-encoded as JPEG,
// which also strips any metadata the original carried.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process decodes, normalizes, and stores an uploaded image.
// Returns the stored file name (a fresh UUID, so stale client caches never
// see a different image under an old name) and the BlurHash placeholder.
func (p *Processor) Process(data []byte) (fileName, blurHash string, err error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	scaled := downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", "", fmt.Errorf("encode jpeg: %w", err)
	}

	blurHash, err = ComputeBlurHash(scaled)
	if err != nil {
		// A missing placeholder shouldn't fail the upload.
		p.logger.Warn("compute blurhash failed", "error", err)
		blurHash = ""
	}

	fileName = uuid.NewString()
	if err := p.storage.Save(fileName, buf.Bytes()); err != nil {
		return "", "", fmt.Errorf("save image: %w", err)
	}

	p.logger.Debug("processed image",
		"file", fileName,
		"format", format,
		"bytes_in", len(data),
		"bytes_out", buf.Len(),
	)

	return fileName, blurHash, nil
}

// Delete removes a previously stored image. Missing files are not an error.
func (p *Processor) Delete(fileName string) error {
	return p.storage.Delete(fileName)
}

// Get reads a previously stored image.
func (p *Processor) Get(fileName string) ([]byte, error) {
	return p.storage.Get(fileName)
}

// Path returns the filesystem path of a stored image.
func (p *Processor) Path(fileName string) string {
	return p.storage.Path(fileName)
}

// downscale resizes an image so its longest edge is at most maxDimension,
// preserving aspect ratio. Uses Catmull-Rom interpolation for quality.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= maxDimension && srcHeight <= maxDimension {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = maxDimension
		dstHeight = (srcHeight * maxDimension) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = maxDimension
		dstWidth = (srcWidth * maxDimension) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
