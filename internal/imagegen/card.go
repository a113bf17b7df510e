package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lox/bikeshare/internal/models"
)

// CardWidth and CardHeight are the standard Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

// basicfont glyphs are 7x13, so text is laid out on a small canvas and
// scaled up.
const cardScale = 4

var (
	white     = color.RGBA{255, 255, 255, 255}
	lightGray = color.RGBA{200, 200, 200, 255}
	accent    = color.RGBA{255, 167, 38, 255}
)

// RenderShareCard draws the headline numbers for a range as a PNG.
func RenderShareCard(s models.Summary) ([]byte, error) {
	canvas := newCanvas(CardWidth/cardScale, CardHeight/cardScale)

	y := 24
	drawText(canvas, "BIKE SHARING DASHBOARD", 16, y, accent)
	y += 20
	drawText(canvas, fmt.Sprintf("%s to %s", s.Range.Start.Format("2 Jan 2006"), s.Range.End.Format("2 Jan 2006")), 16, y, lightGray)
	y += 28
	drawText(canvas, humanize.Comma(int64(s.TotalHourly))+" rentals", 16, y, white)
	y += 18
	drawText(canvas, fmt.Sprintf("registered %s  casual %s", humanize.Comma(int64(s.Registered)), humanize.Comma(int64(s.Casual))), 16, y, lightGray)
	y += 18
	drawText(canvas, fmt.Sprintf("%d days  %s hourly rows", s.Days, humanize.Comma(int64(s.Rows))), 16, y, lightGray)
	if s.BusiestDay > 0 {
		y += 18
		drawText(canvas, fmt.Sprintf("busiest %s (%s)", s.BusiestDate.Format("2 Jan 2006"), humanize.Comma(int64(s.BusiestDay))), 16, y, lightGray)
	}

	return encodeScaled(canvas, CardWidth, CardHeight)
}

// RenderEmpty draws a chart-sized placeholder carrying a title and a notice.
func RenderEmpty(title, notice string) ([]byte, error) {
	canvas := newCanvas(ChartWidth/cardScale*2, ChartHeight/cardScale*2)
	drawText(canvas, title, 12, 20, white)
	drawText(canvas, notice, 12, 44, lightGray)
	return encodeScaled(canvas, ChartWidth, ChartHeight)
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		progress := float64(y) / float64(h)
		c := color.RGBA{uint8(20 + progress*10), uint8(20 + progress*15), uint8(40 + progress*20), 255}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func encodeScaled(src *image.RGBA, w, h int) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
