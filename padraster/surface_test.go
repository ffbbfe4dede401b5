package padraster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func isInk(c color.RGBA) bool { return c.R < 0x40 && c.G < 0x40 && c.B < 0x40 && c.A == 0xff }

func isBackground(c color.RGBA) bool { return c == color.RGBA{0xff, 0xff, 0xff, 0xff} }

func TestNewSurfaceIsOpaque(t *testing.T) {
	s := NewSurface(40, 30, DefaultStyle)
	if w, h := s.Size(); w != 40 || h != 30 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
	img := s.Image()
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if c := img.RGBAAt(x, y); !isBackground(c) {
				t.Fatalf("pixel (%d, %d) is %v, expected opaque white", x, y, c)
			}
		}
	}
}

func TestTapLeavesNoMark(t *testing.T) {
	s := NewSurface(64, 64, DefaultStyle)
	before := s.Image().Pix
	s.OnStart(20, 20)
	s.OnEnd()
	if !bytes.Equal(before, s.Image().Pix) {
		t.Error("a single tap must not paint anything")
	}
}

func TestStrokeContinuity(t *testing.T) {
	s := NewSurface(100, 100, DefaultStyle)
	points := [][2]float64{{10, 10}, {50, 50}, {90, 50}, {90, 90}}
	s.OnStart(points[0][0], points[0][1])
	for _, p := range points[1:] {
		s.OnMove(p[0], p[1])
	}
	s.OnEnd()

	if s.Segments() != 3 {
		t.Fatalf("expected 3 segments, got %d", s.Segments())
	}
	img := s.Image()
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		for step := 0; step <= 10; step++ {
			t_ := float64(step) / 10
			x := int(a[0] + (b[0]-a[0])*t_ + 0.5)
			y := int(a[1] + (b[1]-a[1])*t_ + 0.5)
			if c := img.RGBAAt(x, y); !isInk(c) {
				t.Errorf("segment %d: pixel (%d, %d) is %v, expected ink", i, x, y, c)
			}
		}
	}
	// far from every segment
	if c := img.RGBAAt(10, 90); !isBackground(c) {
		t.Errorf("unexpected ink at (10, 90): %v", c)
	}
}

func TestMoveOutsideStroke(t *testing.T) {
	s := NewSurface(64, 64, DefaultStyle)
	before := s.Image().Pix

	s.OnMove(30, 30) // before any start
	if !bytes.Equal(before, s.Image().Pix) {
		t.Error("move before start altered the buffer")
	}

	s.OnStart(5, 5)
	s.OnMove(20, 20)
	s.OnEnd()
	s.OnEnd() // idempotent
	after := s.Image().Pix

	s.OnMove(60, 60)
	if !bytes.Equal(after, s.Image().Pix) {
		t.Error("move after end altered the buffer")
	}
	if s.Drawing() {
		t.Error("surface should be idle")
	}
}

func TestClearIdempotence(t *testing.T) {
	s := NewSurface(50, 50, DefaultStyle)
	s.OnStart(5, 5)
	s.OnMove(45, 45)
	s.OnEnd()

	s.Clear()
	once := s.Image().Pix
	s.Clear()
	twice := s.Image().Pix
	if !bytes.Equal(once, twice) {
		t.Error("clearing twice differs from clearing once")
	}
	fresh := NewSurface(50, 50, DefaultStyle).Image().Pix
	if !bytes.Equal(once, fresh) {
		t.Error("cleared surface should only contain the background")
	}
	if s.Segments() != 0 {
		t.Errorf("expected no segments after Clear, got %d", s.Segments())
	}
}

func TestExportImage(t *testing.T) {
	s := NewSurface(32, 32, DefaultStyle)
	s.OnStart(4, 4)
	s.OnMove(28, 28)
	s.OnEnd()

	data, err := s.ExportImage()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported image is not a valid png: %s", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 32, 32) {
		t.Errorf("unexpected bounds %v", decoded.Bounds())
	}
	_, _, _, a := decoded.At(0, 31).RGBA()
	if a != 0xffff {
		t.Errorf("exported background should be opaque, got alpha %d", a)
	}

	uri, err := s.ExportDataURI()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data uri prefix: %.30s", uri)
	}
}

func TestThumbnail(t *testing.T) {
	s := NewSurface(280, 280, DefaultStyle)
	s.OnStart(140, 20)
	s.OnMove(140, 260)
	s.OnEnd()

	th := s.Thumbnail(28)
	if th.Bounds() != image.Rect(0, 0, 28, 28) {
		t.Fatalf("unexpected bounds %v", th.Bounds())
	}
	if th.GrayAt(14, 14).Y < 0x80 {
		t.Errorf("ink should be bright in the thumbnail, got %d", th.GrayAt(14, 14).Y)
	}
	if th.GrayAt(2, 2).Y > 0x10 {
		t.Errorf("background should be dark in the thumbnail, got %d", th.GrayAt(2, 2).Y)
	}
}

func TestStrokesRecorded(t *testing.T) {
	s := NewSurface(100, 100, DefaultStyle)
	s.OnStart(10, 10)
	s.OnMove(50, 50.5)
	s.OnEnd()
	s.OnStart(20, 80) // tap
	s.OnEnd()

	if got, exp := s.Strokes().ToSVGPath(), "M10.000,10.000 L50.000,50.500 M20.000,80.000"; got != exp {
		t.Fatalf("expected %s, got %s", exp, got)
	}

	s.OnStart(30, 30)
	s.Clear()
	s.OnMove(40, 40)
	if got, exp := s.Strokes().ToSVGPath(), "M30.000,30.000 L40.000,40.000"; got != exp {
		t.Fatalf("after a clear during a stroke, expected %s, got %s", exp, got)
	}

	// the returned path is a copy
	p := s.Strokes()
	p.Clear()
	if len(s.Strokes()) != 2 {
		t.Error("Strokes must not alias the surface state")
	}
}
