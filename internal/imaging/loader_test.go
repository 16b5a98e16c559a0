package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createInMemoryImage creates a solid-color image without touching disk.
func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestImage encodes img as PNG in the test's temp directory and returns its path.
func writeTestImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTestImage(t, "frame.png", createInMemoryImage(6, 4, color.NRGBA{10, 20, 30, 255}))

	img, info, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img == nil {
		t.Fatal("Load returned nil image")
	}
	if info.Width != 6 || info.Height != 4 {
		t.Errorf("dimensions: got %dx%d, want 6x4", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %q, want png", info.Format)
	}
	if info.HasAlpha {
		t.Error("opaque image reported alpha")
	}
}

func TestLoad_Alpha(t *testing.T) {
	path := writeTestImage(t, "mask.png", createInMemoryImage(2, 2, color.NRGBA{0, 0, 0, 100}))

	_, info, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !info.HasAlpha {
		t.Error("translucent image did not report alpha")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bogus.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected error for invalid image")
	}
}

func TestFrameBuffer_SameSize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 255})
	img.SetNRGBA(1, 0, color.NRGBA{4, 5, 6, 255})

	buf, err := FrameBuffer(img, 2, 1)
	if err != nil {
		t.Fatalf("FrameBuffer failed: %v", err)
	}
	want := []byte{1, 2, 3, 255, 4, 5, 6, 255}
	if string(buf) != string(want) {
		t.Errorf("got %v, want %v", buf, want)
	}

	// the buffer must not alias the source
	buf[0] = 99
	if img.Pix[0] != 1 {
		t.Error("FrameBuffer aliases the source image")
	}
}

func TestFrameBuffer_Resize(t *testing.T) {
	img := createInMemoryImage(8, 8, color.NRGBA{200, 100, 50, 255})

	buf, err := FrameBuffer(img, 4, 2)
	if err != nil {
		t.Fatalf("FrameBuffer failed: %v", err)
	}
	if len(buf) != 4*2*4 {
		t.Fatalf("len: got %d, want %d", len(buf), 4*2*4)
	}
	for i := 0; i < len(buf); i += 4 {
		if abs(int(buf[i])-200) > 1 || abs(int(buf[i+1])-100) > 1 || abs(int(buf[i+2])-50) > 1 {
			t.Fatalf("pixel %d: got %v", i/4, buf[i:i+4])
		}
	}
}

func TestFrameBuffer_InvalidSize(t *testing.T) {
	img := createInMemoryImage(2, 2, color.White)
	if _, err := FrameBuffer(img, 0, 2); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestMaskBuffer_Luminance(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []byte{0, 128, 255}

	buf, err := MaskBuffer(img, 3, 1)
	if err != nil {
		t.Fatalf("MaskBuffer failed: %v", err)
	}
	want := []byte{0, 128, 255}
	if string(buf) != string(want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}

func TestMaskBuffer_Alpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 0})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 180})

	buf, err := MaskBuffer(img, 2, 1)
	if err != nil {
		t.Fatalf("MaskBuffer failed: %v", err)
	}
	// alpha wins over color when the image is translucent
	want := []byte{0, 180}
	if string(buf) != string(want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}

func TestMaskBuffer_Upscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	buf, err := MaskBuffer(img, 8, 6)
	if err != nil {
		t.Fatalf("MaskBuffer failed: %v", err)
	}
	if len(buf) != 48 {
		t.Fatalf("len: got %d, want 48", len(buf))
	}
	for p, v := range buf {
		if v < 254 {
			t.Fatalf("pixel %d: got %d, want 255", p, v)
		}
	}
}

func TestLoadFrameAndMask(t *testing.T) {
	framePath := writeTestImage(t, "frame.png", createInMemoryImage(4, 4, color.NRGBA{50, 60, 70, 255}))
	maskPath := writeTestImage(t, "mask.png", createInMemoryImage(2, 2, color.NRGBA{255, 255, 255, 255}))

	frame, err := LoadFrame(framePath, 4, 4)
	if err != nil {
		t.Fatalf("LoadFrame failed: %v", err)
	}
	if len(frame) != 64 || frame[0] != 50 || frame[3] != 255 {
		t.Errorf("unexpected frame buffer: len=%d first=%v", len(frame), frame[:4])
	}

	mask, err := LoadMask(maskPath, 4, 4)
	if err != nil {
		t.Fatalf("LoadMask failed: %v", err)
	}
	if len(mask) != 16 {
		t.Errorf("mask len: got %d, want 16", len(mask))
	}

	if _, err := LoadMask(filepath.Join(t.TempDir(), "nope.png"), 4, 4); err == nil {
		t.Error("expected error for missing mask")
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
