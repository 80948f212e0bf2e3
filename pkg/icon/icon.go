// pkg/icon/icon.go - draws the application icon and encodes it as .ico.

package icon

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/vector"
)

// Size is the edge length the icon is designed at.
const Size = 256

var (
	Background = color.RGBA{45, 45, 45, 255}
	Circle     = color.RGBA{58, 126, 191, 255}
	Check      = color.RGBA{255, 255, 255, 255}
)

// check mark vertices and stroke width at Size.
var checkPoints = [][2]float32{{80, 128}, {110, 158}, {176, 96}}

const checkWidth = 16

// Render draws the icon at size x size pixels.
func Render(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	s := float32(size) / Size
	z := vector.NewRasterizer(size, size)

	ellipse(z, 128*s, 128*s, 100*s, 100*s)
	fill(img, z, Circle)

	half := checkWidth * s / 2
	for i := 0; i+1 < len(checkPoints); i++ {
		a, b := checkPoints[i], checkPoints[i+1]
		segment(z, a[0]*s, a[1]*s, b[0]*s, b[1]*s, half)
		fill(img, z, Check)
	}
	for _, p := range checkPoints {
		ellipse(z, p[0]*s, p[1]*s, half, half)
		fill(img, z, Check)
	}
	return img
}

func fill(dst *image.RGBA, z *vector.Rasterizer, c color.Color) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
}

// ellipse adds an ellipse built from four cubic Bézier arcs.
func ellipse(z *vector.Rasterizer, cx, cy, rx, ry float32) {
	const k = 0.5522847498
	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+k*ry, cx+k*rx, cy+ry, cx, cy+ry)
	z.CubeTo(cx-k*rx, cy+ry, cx-rx, cy+k*ry, cx-rx, cy)
	z.CubeTo(cx-rx, cy-k*ry, cx-k*rx, cy-ry, cx, cy-ry)
	z.CubeTo(cx+k*rx, cy-ry, cx+rx, cy-k*ry, cx+rx, cy)
	z.ClosePath()
}

// segment adds the rectangle covering a line of half-width h from (x0,y0) to (x1,y1).
func segment(z *vector.Rasterizer, x0, y0, x1, y1, h float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*h, dx/l*h
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

// EncodeICO writes img as a single-image icon with an embedded PNG payload.
func EncodeICO(w io.Writer, img image.Image) error {
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return err
	}

	b := img.Bounds()
	header := struct {
		Reserved, Type, Count uint16
		Width, Height         uint8
		Colors, Reserved2     uint8
		Planes, BitCount      uint16
		BytesInRes, Offset    uint32
	}{
		Type:       1,
		Count:      1,
		Width:      dim(b.Dx()),
		Height:     dim(b.Dy()),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(payload.Len()),
		Offset:     22,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// dim encodes an icon dimension; 256 is stored as 0.
func dim(n int) uint8 {
	if n >= 256 {
		return 0
	}
	return uint8(n)
}

// WriteFile renders the icon at Size and writes it to path.
func WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeICO(f, Render(Size)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
