package padresult

import (
	"fmt"
	"io"
	"strings"
)

// TextView writes the display as plain text, one bar per line,
// for terminals and logs.
type TextView struct {
	W        io.Writer
	BarWidth int // characters for a 100% bar, 40 if zero
}

func (v TextView) Render(d Display) error {
	width := v.BarWidth
	if width <= 0 {
		width = 40
	}
	var b strings.Builder
	if d.Error != nil {
		fmt.Fprintf(&b, "%s%s\n", FailureMarker, d.Error.Message)
		_, err := io.WriteString(v.W, b.String())
		return err
	}
	fmt.Fprintf(&b, "digit: %s  confidence: %s\n", d.Headline, d.Confidence)
	for _, bar := range d.Bars {
		n := int(bar.Width*float64(width)/100 + 0.5)
		if n > width {
			n = width
		} else if n < 0 {
			n = 0
		}
		fmt.Fprintf(&b, "%d |%s%s| %s\n", bar.Digit,
			strings.Repeat("#", n), strings.Repeat(" ", width-n), bar.Label)
	}
	_, err := io.WriteString(v.W, b.String())
	return err
}
