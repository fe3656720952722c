// Package opencv finds an existing scale bar with OpenCV edge and contour
// primitives.
package opencv

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"go-sem-scalebar/internal/detection"

	"gocv.io/x/gocv"
)

// Detector implements detection.BarDetector with Canny edges and external
// contours.
type Detector struct {
	LowThreshold  float32
	HighThreshold float32
}

// NewDetector creates a detector with the usual 50/150 hysteresis thresholds
func NewDetector() *Detector {
	return &Detector{LowThreshold: 50, HighThreshold: 150}
}

// DetectBar returns the bounding box of the contour enclosing the largest
// area. detection.ErrNoScaleBar is returned when no contour exists.
func (d *Detector) DetectBar(ctx context.Context, img image.Image) (detection.BarDetection, error) {
	if err := ctx.Err(); err != nil {
		return detection.BarDetection{}, err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return detection.BarDetection{}, detection.ErrNoScaleBar
	}

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return detection.BarDetection{}, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mat, &edges, d.LowThreshold, d.HighThreshold)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return detection.BarDetection{}, detection.ErrNoScaleBar
	}

	largestIdx, largestArea := 0, -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > largestArea {
			largestIdx, largestArea = i, area
		}
	}

	rect := gocv.BoundingRect(contours.At(largestIdx))
	return detection.BarDetection{
		Bounds: rect.Add(bounds.Min),
		Area:   largestArea,
	}, nil
}
