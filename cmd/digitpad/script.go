package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benoitkugler/digitpad/padinput"
)

type point struct{ X, Y float64 }

// parseScript reads strokes written as "x,y x,y ...",
// separated by ';'. A stroke with a single point is a tap.
func parseScript(s string) ([][]point, error) {
	var strokes [][]point
	for i, chunk := range strings.Split(s, ";") {
		fields := strings.Fields(chunk)
		if len(fields) == 0 {
			continue
		}
		stroke := make([]point, len(fields))
		for j, field := range fields {
			xs, ys, ok := strings.Cut(field, ",")
			if !ok {
				return nil, fmt.Errorf("stroke %d: invalid point %q (expected x,y)", i+1, field)
			}
			x, err := strconv.ParseFloat(xs, 64)
			if err != nil {
				return nil, fmt.Errorf("stroke %d: invalid point %q: %s", i+1, field, err)
			}
			y, err := strconv.ParseFloat(ys, 64)
			if err != nil {
				return nil, fmt.Errorf("stroke %d: invalid point %q: %s", i+1, field, err)
			}
			stroke[j] = point{x, y}
		}
		strokes = append(strokes, stroke)
	}
	if len(strokes) == 0 {
		return nil, fmt.Errorf("empty stroke script")
	}
	return strokes, nil
}

// fixedCanvas places the canvas at a constant viewport position.
type fixedCanvas padinput.Rect

func (c fixedCanvas) BoundingClientRect() padinput.Rect { return padinput.Rect(c) }

// player feeds strokes through one of the raw event producers.
type player struct {
	target padinput.Handler
	touch  bool
	canvas fixedCanvas
}

// replay emits the raw signals a user drawing `strokes` would produce.
// With touch events, points are viewport coordinates.
func (p player) replay(strokes [][]point) {
	if p.touch {
		src := padinput.TouchSource{Target: p.target, Canvas: p.canvas}
		for _, stroke := range strokes {
			for i, pt := range stroke {
				kind := padinput.TouchMove
				if i == 0 {
					kind = padinput.TouchStart
				}
				src.Touch(padinput.TouchEvent{Kind: kind, Touches: []padinput.Touch{{ClientX: pt.X, ClientY: pt.Y}}})
			}
			src.Touch(padinput.TouchEvent{Kind: padinput.TouchEnd})
		}
		return
	}

	src := padinput.PointerSource{Target: p.target}
	for _, stroke := range strokes {
		for i, pt := range stroke {
			kind := padinput.PointerMove
			if i == 0 {
				kind = padinput.PointerDown
			}
			src.Pointer(padinput.PointerEvent{Kind: kind, OffsetX: pt.X, OffsetY: pt.Y})
		}
		src.Pointer(padinput.PointerEvent{Kind: padinput.PointerUp})
	}
}
