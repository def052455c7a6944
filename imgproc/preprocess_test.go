package imgproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodePNG renders a white canvas with a black rectangle, roughly the
// contrast profile of printed card text.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height / 4; y < height/2; y++ {
		for x := width / 4; x < width/2; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocess_BinaryOutput(t *testing.T) {
	out, err := Preprocess(encodePNG(t, 64, 48))
	if err != nil {
		t.Fatalf("Preprocess returned error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode preprocessed image: %v", err)
	}

	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected single-channel output, got %T", img)
	}
	if gray.Bounds().Dx() != 64 || gray.Bounds().Dy() != 48 {
		t.Errorf("expected 64x48 output, got %dx%d", gray.Bounds().Dx(), gray.Bounds().Dy())
	}
	for i, v := range gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d has non-binary value %d", i, v)
		}
	}
}

func TestPreprocess_Deterministic(t *testing.T) {
	data := encodePNG(t, 40, 40)
	first, err := Preprocess(data)
	if err != nil {
		t.Fatalf("Preprocess returned error: %v", err)
	}
	second, err := Preprocess(data)
	if err != nil {
		t.Fatalf("Preprocess returned error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical output for identical input bytes")
	}
}

func TestPreprocess_DownscalesOversizedImages(t *testing.T) {
	out, err := Preprocess(encodePNG(t, maxDimension*2, 100))
	if err != nil {
		t.Fatalf("Preprocess returned error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode preprocessed image: %v", err)
	}
	if img.Bounds().Dx() > maxDimension || img.Bounds().Dy() > maxDimension {
		t.Errorf("expected longest side <= %d, got %dx%d", maxDimension, img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestPreprocess_InvalidData(t *testing.T) {
	if _, err := Preprocess([]byte("not an image")); err == nil {
		t.Error("expected an error for undecodable input, got nil")
	}
}

func TestOtsuThreshold(t *testing.T) {
	testCases := []struct {
		name  string
		build func() ([256]int, int)
		check func(t *testing.T, threshold uint8)
	}{
		{
			name: "bimodal histogram splits the modes",
			build: func() ([256]int, int) {
				var h [256]int
				h[20] = 500
				h[230] = 500
				return h, 1000
			},
			check: func(t *testing.T, threshold uint8) {
				if threshold < 20 || threshold >= 230 {
					t.Errorf("expected threshold between modes, got %d", threshold)
				}
			},
		},
		{
			name: "uniform white image",
			build: func() ([256]int, int) {
				var h [256]int
				h[255] = 100
				return h, 100
			},
			check: func(t *testing.T, threshold uint8) {
				if threshold != 0 {
					t.Errorf("expected threshold 0 for uniform image, got %d", threshold)
				}
			},
		},
		{
			name: "empty histogram",
			build: func() ([256]int, int) {
				var h [256]int
				return h, 0
			},
			check: func(t *testing.T, threshold uint8) {
				if threshold != 0 {
					t.Errorf("expected threshold 0 for empty histogram, got %d", threshold)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, total := tc.build()
			tc.check(t, otsuThreshold(h, total))
		})
	}
}
