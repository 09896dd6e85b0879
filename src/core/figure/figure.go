// Package figure prepares exam figures for multimodal models.
package figure

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"examgrader/src/core/exam"
	"examgrader/src/fsutil"
)

const TitleBarHeight = 50

var ErrUnsupportedFigure = errors.New("unsupported figure format")

// Title is the caption drawn under a figure.
func Title(path string) string {
	return "Figure: " + path
}

// Decode reads a PNG, JPEG, GIF, BMP or WebP image.
func Decode(path string, content []byte) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFigure)
	}
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// AddTitle appends a black bar with the title centered in white.
func AddTitle(img image.Image, title string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+TitleBarHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	width := d.MeasureString(title).Round()
	ascent := face.Metrics().Ascent.Round()
	height := face.Metrics().Height.Round()
	d.Dot = fixed.P((b.Dx()-width)/2, b.Dy()+(TitleBarHeight-height)/2+ascent)
	d.DrawString(title)

	return out
}

// Stack places images below each other on a black canvas, each centered, with
// the canvas 10% wider than the widest image and gaps of 5% of the tallest.
func Stack(images []image.Image) *image.RGBA {
	if len(images) == 0 {
		return nil
	}

	var maxWidth, gap, total int
	for _, img := range images {
		b := img.Bounds()
		maxWidth = max(maxWidth, int(float64(b.Dx())*1.1))
		gap = max(gap, int(float64(b.Dy())*0.05))
		total += b.Dy()
	}
	total += gap * (len(images) + 1)

	out := image.NewRGBA(image.Rect(0, 0, maxWidth, total))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	y := gap
	for _, img := range images {
		b := img.Bounds()
		x := (maxWidth - b.Dx()) / 2
		draw.Draw(out, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
		y += b.Dy() + gap
	}
	return out
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Processor loads the figures of a question from <root>/<exam>/<path>.
type Processor struct {
	fs    fsutil.FileStore
	root  string
	stack bool
}

func NewProcessor(fs fsutil.FileStore, examsRoot string, stack bool) *Processor {
	return &Processor{fs: fs, root: examsRoot, stack: stack}
}

// Process returns PNG-encoded, titled figures in question order, or a single
// stacked image when stacking is enabled.
func (p *Processor) Process(examName string, q exam.Question) ([][]byte, error) {
	paths := q.AllFigures()
	if len(paths) == 0 {
		return nil, nil
	}

	titled := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		full := filepath.Join(p.root, examName, path)
		content, err := p.fs.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read figure %s: %w", full, err)
		}
		img, err := Decode(path, content)
		if err != nil {
			return nil, err
		}
		titled = append(titled, AddTitle(img, Title(path)))
	}

	if p.stack {
		titled = []image.Image{Stack(titled)}
	}

	encoded := make([][]byte, 0, len(titled))
	for _, img := range titled {
		data, err := EncodePNG(img)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	return encoded, nil
}
