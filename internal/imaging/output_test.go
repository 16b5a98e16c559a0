package imaging

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeFrame_Base64(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 128,
		0, 0, 255, 0, 10, 20, 30, 255,
	}

	result, err := EncodeFrame(pix, 2, 2, "")
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if result.Width != 2 || result.Height != 2 {
		t.Errorf("dimensions: got %dx%d, want 2x2", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.OutputPath != "" {
		t.Errorf("OutputPath: got %q, want empty", result.OutputPath)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}

	buf, err := FrameBuffer(img, 2, 2)
	if err != nil {
		t.Fatalf("FrameBuffer failed: %v", err)
	}
	// fully transparent pixels lose their color in PNG round trips
	for _, i := range []int{0, 4, 12} {
		if string(buf[i:i+4]) != string(pix[i:i+4]) {
			t.Errorf("pixel %d: got %v, want %v", i/4, buf[i:i+4], pix[i:i+4])
		}
	}
	if buf[11] != 0 {
		t.Errorf("transparent pixel alpha: got %d, want 0", buf[11])
	}
}

func TestEncodeFrame_OutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	pix := bytes.Repeat([]byte{1, 2, 3, 255}, 6)

	result, err := EncodeFrame(pix, 3, 2, path)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if result.OutputPath != path {
		t.Errorf("OutputPath: got %q, want %q", result.OutputPath, path)
	}
	if result.ImageBase64 != "" {
		t.Error("ImageBase64 should be empty when writing to a file")
	}

	_, info, err := Load(path)
	if err != nil {
		t.Fatalf("failed to reload output: %v", err)
	}
	if info.Width != 3 || info.Height != 2 {
		t.Errorf("saved dimensions: got %dx%d, want 3x2", info.Width, info.Height)
	}
}

func TestEncodeFrame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pix     []byte
		w, h    int
		path    string
		wantErr string
	}{
		{"short buffer", make([]byte, 7), 1, 2, "", "want 8"},
		{"zero size", nil, 0, 0, "", "invalid target size"},
		{"jpeg path", make([]byte, 4), 1, 1, "out.jpg", ".png"},
		{"no extension", make([]byte, 4), 1, 1, "out", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path != "" {
				path = filepath.Join(t.TempDir(), path)
			}
			_, err := EncodeFrame(tt.pix, tt.w, tt.h, path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if path != "" {
				if _, statErr := os.Stat(path); statErr == nil {
					t.Error("file written despite error")
				}
			}
		})
	}
}
