package padresult

import (
	"bytes"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFView renders the display as a one page printable report,
// by wrapping github.com/jung-kurt/gofpdf.
type PDFView struct {
	W             io.Writer // optional, receives each report
	Title         string
	NoCompression bool // write the content streams uncompressed

	buf bytes.Buffer
}

// Bytes returns the last rendered report.
func (v *PDFView) Bytes() []byte { return v.buf.Bytes() }

// bar geometry, in mm
const (
	pdfLeft   = 20.
	pdfTrackX = 30.
	pdfTrackW = 120.
	pdfRowH   = 8.
)

func (v *PDFView) Render(d Display) error {
	title := v.Title
	if title == "" {
		title = "Handwritten digit recognition"
	}
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetCompression(!v.NoCompression)
	tr := p.UnicodeTranslatorFromDescriptor("") // UTF-8 to cp1252
	p.SetTitle(title, true)
	p.AddPage()

	p.SetFont("Helvetica", "B", 16)
	p.SetXY(pdfLeft, 20)
	p.Cell(0, 10, tr(title))

	p.SetFont("Helvetica", "", 12)
	if d.Error != nil {
		p.SetXY(pdfLeft, 35)
		p.SetFillColor(0xff, 0xee, 0xee)
		p.SetDrawColor(0xff, 0x88, 0x88)
		p.SetTextColor(0xcc, 0x33, 0x33)
		p.CellFormat(pdfTrackW+30, 14, tr("x "+d.Error.Message), "1", 1, "C", true, 0, "")
	} else {
		p.SetXY(pdfLeft, 35)
		p.Cell(0, pdfRowH, tr("Digit: "+d.Headline))
		p.SetXY(pdfLeft, 35+pdfRowH)
		p.Cell(0, pdfRowH, tr("Confidence: "+d.Confidence))

		y := 35 + 3*pdfRowH
		for _, b := range d.Bars {
			p.SetXY(pdfLeft, y)
			p.Cell(pdfTrackX-pdfLeft, pdfRowH, string(rune('0'+b.Digit%10)))

			p.SetFillColor(0xe0, 0xe0, 0xe0)
			p.Rect(pdfTrackX, y+1.5, pdfTrackW, pdfRowH-3, "F")
			if w := clampPercent(b.Width) * pdfTrackW / 100; w > 0 {
				p.SetFillColor(0x66, 0x7e, 0xea)
				p.Rect(pdfTrackX, y+1.5, w, pdfRowH-3, "F")
			}

			p.SetXY(pdfTrackX+pdfTrackW+4, y)
			p.Cell(20, pdfRowH, b.Label)
			y += pdfRowH
		}
	}

	v.buf.Reset()
	if err := p.Output(&v.buf); err != nil {
		return err
	}
	if v.W == nil {
		return nil
	}
	_, err := v.W.Write(v.buf.Bytes())
	return err
}

func clampPercent(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 100 {
		return 100
	}
	return w
}
