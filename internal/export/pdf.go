// Package export writes packing results to reports and drawings: a PDF
// report with QR-coded labels, a PNG plot, DXF and Excel files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/piwi3910/FitCheck/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	summaryQR    = 45.0
)

// Summary is the machine-readable verdict printed as a QR code on the
// report's summary page.
type Summary struct {
	Feasible     bool         `json:"feasible"`
	Reason       model.Reason `json:"reason"`
	Container    string       `json:"container"`
	Objects      int          `json:"objects"`
	Placed       int          `json:"placed"`
	Utilization  float64      `json:"utilization_pct"`
	PosesTried   int64        `json:"poses_tried"`
	FailedObject string       `json:"failed_object,omitempty"`
}

// BuildSummary condenses a packing result.
func BuildSummary(result model.PackingResult) Summary {
	return Summary{
		Feasible:     result.Feasible,
		Reason:       result.Reason,
		Container:    result.Container.Label,
		Objects:      len(result.Objects),
		Placed:       len(result.Placements),
		Utilization:  math.Round(result.Utilization()*10) / 10,
		PosesTried:   result.Stats.PosesTried,
		FailedObject: result.FailedObject,
	}
}

// ExportPDF generates a two page report: the layout drawing followed by a
// summary page with the verdict, search statistics and settings.
func ExportPDF(path string, result model.PackingResult, cfg model.Config) error {
	if len(result.Container.Outline) == 0 {
		return fmt.Errorf("no container to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, result)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, result, cfg); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// layoutOutlines returns what the layout page draws besides the container:
// the placed outlines for a feasible result, otherwise the objects where
// they were found.
func layoutOutlines(result model.PackingResult) []model.Outline {
	if result.Feasible {
		return result.PlacedOutlines()
	}
	outlines := make([]model.Outline, len(result.Objects))
	for i, o := range result.Objects {
		outlines[i] = o.Outline
	}
	return outlines
}

// renderLayoutPage draws the container and the objects on the current page.
func renderLayoutPage(pdf *fpdf.Fpdf, result model.PackingResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	verdict := "FITS"
	if !result.Feasible {
		verdict = "DOES NOT FIT"
	}
	title := fmt.Sprintf("Placement: %s (%s)", verdict, result.Reason)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Objects: %d | Placed: %d | Container area: %.0f | Object area: %.0f | Utilization: %.1f%%",
		len(result.Objects), len(result.Placements), result.Container.Area, result.TotalObjectArea(), result.Utilization())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	outlines := layoutOutlines(result)
	all := append(model.Outline{}, result.Container.Outline...)
	for _, o := range outlines {
		all = append(all, o...)
	}
	min, max := all.BoundingBox()

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/math.Max(max.X-min.X, 1), drawHeight/math.Max(max.Y-min.Y, 1))
	offsetX := marginLeft + (drawWidth-(max.X-min.X)*scale)/2
	offsetY := drawAreaTop

	toPage := func(o model.Outline) []fpdf.PointType {
		pts := make([]fpdf.PointType, len(o))
		for i, p := range o {
			pts[i] = fpdf.PointType{X: offsetX + (p.X-min.X)*scale, Y: offsetY + (p.Y-min.Y)*scale}
		}
		return pts
	}

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.5)
	pdf.Polygon(toPage(result.Container.Outline), "FD")

	colors := Palette(len(outlines))
	for i, o := range outlines {
		pdf.SetLineWidth(0.3)
		switch {
		case result.Feasible:
			pdf.SetFillColor(rgb255(colors[i]))
			pdf.SetDrawColor(30, 30, 30)
			pdf.Polygon(toPage(o), "FD")
		case result.Objects[i].Label == result.FailedObject:
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetDashPattern([]float64{1.5, 1}, 0)
			pdf.Polygon(toPage(o), "D")
			pdf.SetDashPattern([]float64{}, 0)
		default:
			pdf.SetDrawColor(120, 120, 120)
			pdf.Polygon(toPage(o), "D")
		}
	}

	drawObjectsLegend(pdf, result, colors, offsetY+(max.Y-min.Y)*scale+5)
}

// drawObjectsLegend renders a compact legend of objects below the layout.
func drawObjectsLegend(pdf *fpdf.Fpdf, result model.PackingResult, colors []colorful.Color, startY float64) {
	if len(result.Objects) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Objects:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, o := range result.Objects {
		label := fmt.Sprintf("%s (area %.0f)", o.Label, o.Area)
		if result.Feasible {
			pose := result.Placements[i].Pose
			label += fmt.Sprintf(" @ %.0f,%.0f %.0f\xb0", pose.DX, pose.DY, pose.Angle)
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		if result.Feasible {
			pdf.SetFillColor(rgb255(colors[i]))
		} else {
			pdf.SetFillColor(160, 160, 160)
		}
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the verdict, search statistics and settings.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.PackingResult, cfg model.Config) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Placement Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	summary := BuildSummary(result)
	if err := placeQR(pdf, "qr_summary", summary, pageWidth-marginRight-summaryQR, y, summaryQR); err != nil {
		return err
	}

	items := []item{
		{"Verdict", fmt.Sprintf("%t (%s)", result.Feasible, result.Reason)},
		{"Container", fmt.Sprintf("%s, area %.0f, diameter %.1f", result.Container.Label, result.Container.Area, result.Container.Diameter)},
		{"Objects Placed", fmt.Sprintf("%d of %d", len(result.Placements), len(result.Objects))},
		{"Utilization", fmt.Sprintf("%.1f%%", result.Utilization())},
		{"Poses Tried", fmt.Sprintf("%d", result.Stats.PosesTried)},
		{"Search Time", result.Stats.Elapsed.String()},
	}
	if result.FailedObject != "" {
		items = append(items, item{"Failed Object", result.FailedObject})
	}
	y = renderItems(pdf, "Overall Statistics", items, y)

	y += 5
	y = renderObjectTable(pdf, result, y)

	y += 8
	settings := []item{
		{"Shift Step", fmt.Sprintf("%.1f px", cfg.ShiftStep)},
		{"Rotate Step", fmt.Sprintf("%.1f\xb0", cfg.RotateStep)},
		{"Rotation Range", fmt.Sprintf("%.0f\xb0 to %.0f\xb0", cfg.MinDegree, cfg.MaxDegree)},
		{"Area Pre-filter", fmt.Sprintf("%t (x%.1f)", cfg.AreaPrefilter, cfg.AreaFactor)},
		{"Workers", fmt.Sprintf("%d", cfg.Workers)},
	}
	renderItems(pdf, "Search Settings", settings, y)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by FitCheck - Placement Feasibility Checker", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// item is one label/value line on the summary page.
type item struct {
	label string
	value string
}

func renderItems(pdf *fpdf.Fpdf, heading string, items []item, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, heading, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	return y
}

// renderObjectTable draws one row per object with its pose when placed.
func renderObjectTable(pdf *fpdf.Fpdf, result model.PackingResult, y float64) float64 {
	colWidths := []float64{15, 50, 35, 35, 35, 30, 30}
	headers := []string{"#", "Object", "Area", "Diameter", "Shift X", "Shift Y", "Angle"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, o := range result.Objects {
		dx, dy, angle := "-", "-", "-"
		if i < len(result.Placements) {
			pose := result.Placements[i].Pose
			dx = fmt.Sprintf("%.0f", pose.DX)
			dy = fmt.Sprintf("%.0f", pose.DY)
			angle = fmt.Sprintf("%.0f\xb0", pose.Angle)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			strings.TrimSpace(o.Label),
			fmt.Sprintf("%.0f", o.Area),
			fmt.Sprintf("%.1f", o.Diameter),
			dx, dy, angle,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
		if y > pageHeight-marginBottom-60 {
			break
		}
	}
	return y
}
