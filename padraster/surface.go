// Implements the drawing surface of the pad:
// a raster buffer on which freehand strokes are rendered,
// by wrapping rasterx.
package padraster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/benoitkugler/digitpad/padpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// Style is the fixed stroke style used for every segment.
type Style struct {
	LineWidth  float64
	Stroke     color.Color
	Background color.Color
}

// DefaultStyle is a 15px black pen on an opaque white background.
var DefaultStyle = Style{
	LineWidth:  15,
	Stroke:     color.NRGBA{A: 0xff},
	Background: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

// Surface owns the raster buffer and the stroke state.
// It is driven by the start/move/end events of padinput.
type Surface struct {
	mu sync.Mutex

	img    *image.RGBA
	dasher *rasterx.Dasher
	style  Style

	drawing      bool
	lastX, lastY float64 // only meaningful while drawing
	segments     int
	strokes      padpath.Path
}

// NewSurface returns a surface of the given size, painted
// with the background of `style`.
func NewSurface(width, height int, style Style) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	s := &Surface{
		img:    img,
		dasher: rasterx.NewDasher(width, height, scanner),
		style:  style,
	}
	s.fill()
	return s
}

// Size returns the dimensions of the raster buffer.
func (s *Surface) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// OnStart begins a stroke at (x, y). Nothing is painted
// until the first move.
func (s *Surface) OnStart(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = true
	s.lastX, s.lastY = x, y
	s.strokes.Start(padpath.Point(x, y))
}

// OnMove paints the segment from the last point to (x, y),
// as an independent path. It is a no-op outside of a stroke.
func (s *Surface) OnMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return
	}
	s.strokeSegment(padpath.Segment(s.lastX, s.lastY, x, y))
	s.strokes.Line(padpath.Point(x, y))
	s.lastX, s.lastY = x, y
	s.segments++
}

// OnEnd terminates the current stroke, if any.
func (s *Surface) OnEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawing {
		s.strokes.Stop(false)
	}
	s.drawing = false
}

// Drawing returns true between a start and an end.
func (s *Surface) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// Segments returns the number of segments painted since
// the last Clear.
func (s *Surface) Segments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segments
}

// Clear repaints the whole buffer with the background color.
// The buffer is never made transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill()
	s.segments = 0
	s.strokes.Clear()
	if s.drawing {
		s.strokes.Start(padpath.Point(s.lastX, s.lastY))
	}
}

// Strokes returns the strokes drawn since the last Clear,
// one MoveTo per start followed by a LineTo per move.
func (s *Surface) Strokes() padpath.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(padpath.Path(nil), s.strokes...)
}

func (s *Surface) fill() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.style.Background), image.Point{}, draw.Src)
}

func (s *Surface) strokeSegment(p padpath.Path) {
	s.dasher.Clear()
	s.dasher.SetStroke(fixed.Int26_6(s.style.LineWidth*64), 4<<6,
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)
	s.dasher.SetColor(s.style.Stroke)
	p.AddTo(s.dasher)
	s.dasher.Draw()
}

// Image returns a copy of the current raster buffer.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// ExportImage encodes the raster buffer as PNG.
func (s *Surface) ExportImage() ([]byte, error) {
	img := s.Image()
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, fmt.Errorf("encoding drawing: %w", err)
	}
	return b.Bytes(), nil
}

// ExportDataURI returns the PNG encoding of the buffer
// as a "data:image/png;base64," URI.
func (s *Surface) ExportDataURI() (string, error) {
	data, err := s.ExportImage()
	if err != nil {
		return "", err
	}
	return DataURI("image/png", data), nil
}

// DataURI embeds `data` in a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Thumbnail returns a size x size grayscale preview of the drawing,
// inverted so that ink is bright on a dark background, which is
// how a MNIST style classifier sees it.
func (s *Surface) Thumbnail(size int) *image.Gray {
	src := s.Image()
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := image.NewGray(scaled.Bounds())
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			g := color.GrayModel.Convert(scaled.At(x, y)).(color.Gray)
			out.SetGray(x, y, color.Gray{Y: 0xff - g.Y})
		}
	}
	return out
}
