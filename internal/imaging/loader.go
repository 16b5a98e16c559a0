package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
)

// ImageInfo describes a decoded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`
}

// Load decodes the image at path.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the image
//     format and color model (e.g., *image.NRGBA, *image.Gray, *image.YCbCr).
//   - *ImageInfo: Size, format and alpha presence of the image.
//   - error: Non-nil if the file cannot be opened or decoded.
func Load(path string) (image.Image, *ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	return img, &ImageInfo{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   format,
		HasAlpha: hasAlpha(img),
	}, nil
}

// LoadFrame decodes the image at path and returns it as a width*height*4
// RGBA buffer.
func LoadFrame(path string, width, height int) ([]byte, error) {
	img, _, err := Load(path)
	if err != nil {
		return nil, err
	}
	return FrameBuffer(img, width, height)
}

// LoadMask decodes the image at path and returns it as a width*height mask.
func LoadMask(path string, width, height int) ([]byte, error) {
	img, _, err := Load(path)
	if err != nil {
		return nil, err
	}
	return MaskBuffer(img, width, height)
}

// FrameBuffer converts img to non-premultiplied RGBA at width x height.
//
// The image is resized with a Lanczos filter when its size differs. The
// returned slice is newly allocated.
func FrameBuffer(img image.Image, width, height int) ([]byte, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	var nrgba *image.NRGBA
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		nrgba = imaging.Clone(img)
	} else {
		nrgba = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	return nrgba.Pix, nil
}

// MaskBuffer extracts a single-channel mask from img at width x height.
//
// When img has any non-opaque pixel the alpha channel is the mask; otherwise
// the luminance is. The mask is resized with a linear filter when its size
// differs.
func MaskBuffer(img image.Image, width, height int) ([]byte, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	useAlpha := hasAlpha(src)

	gray := image.NewGray(image.Rect(0, 0, sw, sh))
	for p := 0; p < sw*sh; p++ {
		i := p * 4
		if useAlpha {
			gray.Pix[p] = src.Pix[i+3]
			continue
		}
		c := color.NRGBA{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2], A: 255}
		gray.Pix[p] = color.GrayModel.Convert(c).(color.Gray).Y
	}

	if sw == width && sh == height {
		return gray.Pix, nil
	}

	resized := imaging.Resize(gray, width, height, imaging.Linear)
	out := make([]byte, width*height)
	for p := range out {
		out[p] = resized.Pix[p*4]
	}
	return out, nil
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return nil
}

// hasAlpha reports whether any pixel of img is not fully opaque.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
