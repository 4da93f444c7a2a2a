package report

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	labelShare    = 50.0
	valueShare    = 100.0
	tableFontSize = 10.0
	lineHeight    = 5.0
	cellPadding   = 1.5
)

// Row is one label/value line of a campaign table.
type Row struct {
	Label string
	Value string
}

// CampaignRows returns the fixed six-row table for a campaign.
func CampaignRows(c Campaign) []Row {
	return []Row{
		{Label: "Campaign Name", Value: c.Name},
		{Label: "Objective", Value: c.Objective},
		{Label: "Target Audience", Value: c.TargetAudience},
		{Label: "Campaign Details", Value: c.CampaignDetails},
		{Label: "Strategy Score", Value: c.Strategy.Score.String()},
		{Label: "Trending Topics", Value: strings.Join(c.Strategy.Topics.Names(), ", ")},
	}
}

type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (d *document) titlePage(generatedAt string) {
	d.pdf.AddPage()
	d.pdf.SetFont(d.family, "B", 24)
	d.pdf.CellFormat(0, 20, d.tr(reportTitle), "", 1, "C", false, 0, "")
	d.pdf.Ln(10)

	d.pdf.SetFont(d.family, "B", 12)
	d.pdf.CellFormat(0, 10, d.tr("Generated on: "+generatedAt), "", 1, "C", false, 0, "")
}

func (d *document) campaignPage(c Campaign) {
	d.pdf.AddPage()

	left, _, right, _ := d.pdf.GetMargins()
	pageWidth, _ := d.pdf.GetPageSize()
	width := pageWidth - left - right
	labelWidth := width * labelShare / (labelShare + valueShare)
	valueWidth := width - labelWidth

	for _, row := range CampaignRows(c) {
		d.row(row, left, labelWidth, valueWidth)
	}
}

// row draws one table row. A row that fits on a fresh page is never split;
// taller rows continue on following pages in page-sized chunks.
func (d *document) row(row Row, x, labelWidth, valueWidth float64) {
	pdf := d.pdf

	pdf.SetFont(d.family, "B", tableFontSize)
	labelLines := d.wrap(row.Label, labelWidth-2*cellPadding)
	pdf.SetFont(d.family, "", tableFontSize)
	valueLines := d.wrap(row.Value, valueWidth-2*cellPadding)

	auto, margin := pdf.GetAutoPageBreak()
	pdf.SetAutoPageBreak(false, margin)
	defer pdf.SetAutoPageBreak(auto, margin)

	_, pageHeight := pdf.GetPageSize()
	_, top, _, bottom := pdf.GetMargins()
	fitting := func(y float64) int {
		return int((pageHeight - bottom - y - 2*cellPadding) / lineHeight)
	}
	freshPage := fitting(top)

	total := max(len(labelLines), len(valueLines))
	for start := 0; start < total; {
		y := pdf.GetY()
		fit := fitting(y)
		remaining := total - start
		atTop := y <= top+0.01
		if fit < 1 || (fit < remaining && remaining <= freshPage && !atTop) {
			pdf.AddPage()
			continue
		}

		end := start + min(fit, remaining)
		height := float64(end-start)*lineHeight + 2*cellPadding

		pdf.SetFillColor(200, 200, 255)
		pdf.Rect(x, y, labelWidth, height, "FD")
		pdf.SetFillColor(255, 255, 255)
		pdf.Rect(x+labelWidth, y, valueWidth, height, "D")

		pdf.SetFont(d.family, "B", tableFontSize)
		d.lines(chunk(labelLines, start, end), x, y, labelWidth)
		pdf.SetFont(d.family, "", tableFontSize)
		d.lines(chunk(valueLines, start, end), x+labelWidth, y, valueWidth)

		pdf.SetXY(x, y+height)
		start = end
		if start < total {
			pdf.AddPage()
		}
	}
}

// chunk returns lines[start:end] clamped to the slice length.
func chunk(lines []string, start, end int) []string {
	if start >= len(lines) {
		return nil
	}
	return lines[start:min(end, len(lines))]
}

func (d *document) lines(lines []string, x, y, width float64) {
	for i, line := range lines {
		d.pdf.SetXY(x+cellPadding, y+cellPadding+float64(i)*lineHeight)
		d.pdf.CellFormat(width-2*cellPadding, lineHeight, d.tr(line), "", 0, "L", false, 0, "")
	}
}

// wrap splits text into lines no wider than width using the current font.
func (d *document) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for _, piece := range d.splitWord(word, width) {
				switch {
				case line == "":
					line = piece
				case d.width(line+" "+piece) <= width:
					line += " " + piece
				default:
					lines = append(lines, line)
					line = piece
				}
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func (d *document) splitWord(word string, width float64) []string {
	if d.width(word) <= width {
		return []string{word}
	}
	var parts []string
	var current []rune
	for _, r := range word {
		if len(current) > 0 && d.width(string(current)+string(r)) > width {
			parts = append(parts, string(current))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}

func (d *document) width(s string) float64 {
	return d.pdf.GetStringWidth(d.tr(s))
}
