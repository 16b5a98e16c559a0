package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodeResult contains an encoded output image
type EncodeResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
	MimeType    string `json:"mime_type"`
}

// ToImage wraps a width*height*4 RGBA buffer as an image without copying
func ToImage(pix []byte, width, height int) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("buffer has %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height)
	}
	return &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}, nil
}

// Encode renders img as base64 PNG, or writes it to outputPath when set
func Encode(img image.Image, outputPath string) (*EncodeResult, error) {
	res := &EncodeResult{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		MimeType: "image/png",
	}

	if outputPath != "" {
		if f, err := imaging.FormatFromFilename(outputPath); err != nil || f != imaging.PNG {
			return nil, fmt.Errorf("output path must have a .png extension: %s", outputPath)
		}
		if err := imaging.Save(img, outputPath, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		res.OutputPath = outputPath
		return res, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	res.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	return res, nil
}

// EncodeFrame encodes a rendered RGBA buffer
func EncodeFrame(pix []byte, width, height int, outputPath string) (*EncodeResult, error) {
	img, err := ToImage(pix, width, height)
	if err != nil {
		return nil, err
	}
	return Encode(img, outputPath)
}
