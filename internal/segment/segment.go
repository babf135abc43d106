// Package segment turns a photo into the closed polygons the placement
// engine consumes: edges, morphological closing, outer contours, polygon
// approximation and a minimum-area filter.
package segment

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/piwi3910/FitCheck/internal/logging"
	"github.com/piwi3910/FitCheck/internal/model"
)

// Result holds the polygons found in one image, largest first.
type Result struct {
	Shapes []model.Shape
	Width  int
	Height int

	// Cropped is set when the picture was cut down to a detected sheet.
	// Coordinates are then relative to Offset in the original image.
	Cropped bool
	Offset  image.Point
}

// Field returns the search field covering the analysed frame.
func (r Result) Field() model.Field {
	return model.FieldFromImage(r.Width, r.Height)
}

// Segmenter runs the detection pipeline with the thresholds from Config.
type Segmenter struct {
	Config model.Config
	Logger *zap.Logger
}

func New(cfg model.Config) *Segmenter {
	return &Segmenter{Config: cfg, Logger: logging.L()}
}

// Load decodes a photo from disk, honouring its EXIF orientation.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// Segment finds the closed outlines in img. An image without any outline
// is not an error; the caller decides what an empty result means.
func (s *Segmenter) Segment(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("segment: nil image")
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := s.Config

	b := img.Bounds()
	res := Result{Width: b.Dx(), Height: b.Dy()}
	if res.Width == 0 || res.Height == 0 {
		return res, nil
	}

	gray := intensity(img, cfg.BlurSigma)
	edges := canny(gray, cfg.EdgeThresholdLow, cfg.EdgeThresholdHigh)
	closed := closeEdges(edges, cfg.CloseKernel)
	contours := externalContours(binarize(closed))

	if cfg.CropSheet {
		if rect, ok := sheetRect(contours, res.Width, res.Height, cfg.SheetSlack, cfg.SheetInset); ok {
			cropped := imaging.Crop(closed, rect)
			contours = externalContours(binarize(cropped))
			res.Cropped = true
			res.Offset = rect.Min
			res.Width, res.Height = rect.Dx(), rect.Dy()
			log.Debug("cropped to sheet", zap.Stringer("rect", rect))
		}
	}

	kept := contours[:0]
	for _, c := range contours {
		if c.area > cfg.MinContourArea {
			kept = append(kept, c)
		}
	}
	sortByAreaDesc(kept)

	for _, c := range kept {
		ring := approximate(c.ring, cfg.ApproximationTolerance)
		if len(ring) < 3 {
			continue
		}
		outline := make(model.Outline, len(ring))
		for i, p := range ring {
			outline[i] = model.Point2D{X: p[0], Y: p[1]}
		}
		label := fmt.Sprintf("shape-%d", len(res.Shapes)+1)
		res.Shapes = append(res.Shapes, model.NewShape(label, outline))
	}

	log.Debug("segmentation finished",
		zap.Int("contours", len(contours)),
		zap.Int("shapes", len(res.Shapes)),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
	)
	return res, nil
}

// sheetRect looks for a contour covering nearly the whole picture, which is
// the sheet of paper the scene was laid on, and returns its bounding box
// shrunk by inset on every side.
func sheetRect(contours []contour, width, height, slack, inset int) (image.Rectangle, bool) {
	limit := float64((height - slack) * (width - slack))
	if height <= slack || width <= slack {
		return image.Rectangle{}, false
	}
	for _, c := range contours {
		if c.area <= limit {
			continue
		}
		r := image.Rectangle{Min: c.points[0], Max: c.points[0]}
		for _, p := range c.points {
			r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
		}
		r = r.Inset(inset)
		if r.Empty() {
			return image.Rectangle{}, false
		}
		return r, true
	}
	return image.Rectangle{}, false
}
