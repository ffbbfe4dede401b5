package padresult

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// geometry of the raster result panel, in pixels
const (
	imgPadding   = 8
	imgHeader    = 24
	imgRowHeight = 18
	imgLabelW    = 16
	imgValueW    = 48
)

var (
	panelBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	panelText       = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	barTrack        = color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	barFill         = color.NRGBA{R: 0x66, G: 0x7e, B: 0xea, A: 0xff}
	errorFill       = color.NRGBA{R: 0xff, G: 0xee, B: 0xee, A: 0xff}
	errorText       = color.NRGBA{R: 0xcc, G: 0x33, B: 0x33, A: 0xff}
)

// ImageView paints the display on a raster panel,
// for hosts without a DOM (native windows, e-ink, snapshots).
// Labels use the fixed 7x13 font, which only covers ASCII,
// so the failure marker is rendered as "[x]".
type ImageView struct {
	Width int // 300 if zero

	img *image.RGBA
	// BarRects holds, for each rendered bar, the filled rectangle.
	BarRects []image.Rectangle
}

// Image returns the last rendered panel.
func (v *ImageView) Image() *image.RGBA { return v.img }

func (v *ImageView) Render(d Display) error {
	width := v.Width
	if width <= 0 {
		width = 300
	}
	height := imgPadding*2 + imgHeader + 10*imgRowHeight
	if n := len(d.Bars); n > 10 {
		height = imgPadding*2 + imgHeader + n*imgRowHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Bounds(), panelBackground)

	v.BarRects = v.BarRects[:0]
	if d.Error != nil {
		box := image.Rect(imgPadding, imgPadding, width-imgPadding, imgPadding+imgHeader)
		fillRect(img, box, errorFill)
		drawText(img, "[x] "+d.Error.Message, box.Min.X+4, box.Max.Y-7, errorText)
		v.img = img
		return nil
	}

	drawText(img, "digit: "+d.Headline+"   confidence: "+d.Confidence, imgPadding, imgPadding+13, panelText)
	trackW := width - 2*imgPadding - imgLabelW - imgValueW
	for i, b := range d.Bars {
		top := imgPadding + imgHeader + i*imgRowHeight
		drawText(img, string(rune('0'+b.Digit%10)), imgPadding, top+13, panelText)

		track := image.Rect(imgPadding+imgLabelW, top+3, imgPadding+imgLabelW+trackW, top+imgRowHeight-3)
		fillRect(img, track, barTrack)

		w := int(b.Width*float64(trackW)/100 + 0.5)
		if w > trackW {
			w = trackW
		} else if w < 0 {
			w = 0
		}
		filled := image.Rect(track.Min.X, track.Min.Y, track.Min.X+w, track.Max.Y)
		fillRect(img, filled, barFill)
		v.BarRects = append(v.BarRects, filled)

		drawText(img, b.Label, track.Max.X+4, top+13, panelText)
	}
	v.img = img
	return nil
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
