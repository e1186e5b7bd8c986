package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	xdraw "golang.org/x/image/draw"
)

// Canvas is a raster Surface backed by an RGBA image.
type Canvas struct {
	dc  *gg.Context
	img *image.RGBA
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	dc := gg.NewContextForRGBA(img)
	dc.SetLineCapButt()

	return &Canvas{dc: dc, img: img}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Image returns the backing image. It is modified by later draw calls.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Snapshot returns a copy of the current pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// Clear resets every pixel to transparent.
func (c *Canvas) Clear() {
	c.dc.ClearPath()
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// DrawBackground stretches img over the whole canvas.
func (c *Canvas) DrawBackground(img image.Image) {
	xdraw.CatmullRom.Scale(c.img, c.img.Bounds(), img, img.Bounds(), draw.Over, nil)
}

// StrokePath outlines the polyline through points.
func (c *Canvas) StrokePath(points []r2.Point, style Stroke) {
	if len(points) == 0 {
		return
	}

	c.dc.Push()
	defer c.dc.Pop()

	c.dc.SetColor(style.Color)
	c.dc.SetLineWidth(style.Width)
	c.dc.SetDash(style.Dash...)

	c.dc.NewSubPath()
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.Stroke()
}

// FillCircle paints a filled disc.
func (c *Canvas) FillCircle(center r2.Point, radius float64, col color.Color) {
	c.dc.Push()
	defer c.dc.Pop()

	c.dc.SetColor(col)
	c.dc.DrawCircle(center.X, center.Y, radius)
	c.dc.Fill()
}
