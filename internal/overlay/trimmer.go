package overlay

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
)

// TrimMargin removes the white information strip below the micrograph.
//
// The rightmost column is scanned from the bottom row upwards; the first row y
// whose brightness differs from row y-1 by more than threshold becomes the crop
// line and rows [0, y) are returned as a new image. When no such step exists
// the input is returned as is and cropY equals the image height.
func TrimMargin(img image.Image, threshold float64) (trimmed image.Image, cropY int) {
	bounds := img.Bounds()
	height := bounds.Dy()
	if height < 2 || bounds.Dx() == 0 {
		return img, height
	}

	profile := ColumnBrightness(img, bounds.Max.X-1)

	// steps[i] = profile[i+1] - profile[i]
	steps := make([]float64, height-1)
	floats.SubTo(steps, profile[1:], profile[:height-1])

	for y := height - 1; y >= 1; y-- {
		if math.Abs(steps[y-1]) > threshold {
			rect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+y)
			return imaging.Crop(img, rect), y
		}
	}
	return img, height
}

// ColumnBrightness returns the 8-bit brightness of every pixel in column x,
// top to bottom. Brightness is the mean of the R, G and B channels.
func ColumnBrightness(img image.Image, x int) []float64 {
	bounds := img.Bounds()
	profile := make([]float64, bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		profile[y-bounds.Min.Y] = brightness(img, x, y)
	}
	return profile
}

func brightness(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return float64(r>>8+g>>8+b>>8) / 3
}
