// Package imgproc prepares uploaded card images for OCR. The pipeline is
// grayscale conversion, Gaussian blur and global Otsu binarization; large
// uploads are downscaled first so Tesseract never chews on a full-resolution
// photo.
package imgproc

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

const (
	// maxDimension caps the longest image side before OCR.
	maxDimension = 2048
	// blurSigma approximates the 5x5 Gaussian kernel commonly used for
	// scan denoising.
	blurSigma = 1.0
)

// Preprocess decodes an uploaded image and returns a binarized, PNG-encoded
// copy. The output is single-channel with every pixel either black or white
// and keeps the (possibly downscaled) spatial dimensions of the input.
func Preprocess(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	src = downscale(src)
	gray := imaging.Grayscale(src)
	blurred := imaging.Blur(gray, blurSigma)
	binary := binarize(blurred)

	var buf bytes.Buffer
	if err := png.Encode(&buf, binary); err != nil {
		return nil, errors.Wrap(err, "encode preprocessed image")
	}
	return buf.Bytes(), nil
}

// downscale shrinks images whose longest side exceeds maxDimension,
// preserving aspect ratio. Smaller images pass through untouched.
func downscale(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDimension {
		return src
	}

	scale := float64(maxDimension) / float64(longest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

// binarize applies a global Otsu threshold to an already-grayscale image.
func binarize(src *image.NRGBA) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	var histogram [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Channels are equal after grayscale conversion; red stands in
			// for luminance.
			v := src.NRGBAAt(x, y).R
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: v})
			histogram[v]++
		}
	}

	threshold := otsuThreshold(histogram, bounds.Dx()*bounds.Dy())

	pix := gray.Pix
	for i, v := range pix {
		if v > threshold {
			pix[i] = 255
		} else {
			pix[i] = 0
		}
	}
	return gray
}

// otsuThreshold picks the gray level that maximizes between-class variance
// over the histogram. A uniform image yields threshold 0.
func otsuThreshold(histogram [256]int, total int) uint8 {
	if total == 0 {
		return 0
	}

	var sum float64
	for v, count := range histogram {
		sum += float64(v) * float64(count)
	}

	var (
		sumBackground    float64
		weightBackground int
		bestVariance     float64 = -1
		best             uint8
	)
	for t := 0; t < 255; t++ {
		weightBackground += histogram[t]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t) * float64(histogram[t])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)
		diff := meanBackground - meanForeground
		variance := float64(weightBackground) * float64(weightForeground) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			best = uint8(t)
		}
	}
	return best
}
