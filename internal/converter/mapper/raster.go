package mapper

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"svg2emblem/internal/converter/models"
)

// RenderPNG растеризует примитивы на прозрачном холсте и пишет PNG.
func (r *Renderer) RenderPNG(w io.Writer, primitives []models.Primitive) error {
	if err := validPrimitives(primitives); err != nil {
		return err
	}
	width, height := r.canvasSize(primitives)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	z := vector.NewRasterizer(width, height)
	for _, p := range primitives {
		points := clipToCanvas(outline(p), float64(width), float64(height))
		if len(points) < 3 {
			continue
		}

		z.Reset(width, height)
		z.DrawOp = draw.Over

		z.MoveTo(float32(points[0].X), float32(points[0].Y))
		for _, pt := range points[1:] {
			z.LineTo(float32(pt.X), float32(pt.Y))
		}
		z.ClosePath()

		c := parseColor(p.Fill)
		c.A = uint8(clamp(p.Opacity, 0, 1)*0xff + 0.5)
		z.Draw(dst, dst.Bounds(), image.NewUniform(color.Color(c)), image.Point{})
	}

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
