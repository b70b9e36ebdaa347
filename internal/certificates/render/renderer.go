// Package render composites recipient details onto a certificate template
// image and wraps the result in a single-page PDF.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/types"
)

// templates are bitmaps authored for print, so the PDF page is sized to the
// image at this density.
const renderDPI = 150.0

// Fields carries the text composited onto the template.
type Fields struct {
	Name  string
	Hours string
}

// Renderer turns a template image plus layout into certificate PDFs.
type Renderer struct {
	font *truetype.Font

	// creationDate pins the PDF metadata timestamp. Zero means "now";
	// tests pin it so identical inputs produce identical bytes.
	creationDate time.Time
}

// New builds a renderer using the bundled font.
func New() (*Renderer, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bundled font: %w", err)
	}
	return &Renderer{font: parsed}, nil
}

// WithCreationDate returns a copy of the renderer that stamps the given
// timestamp into PDF metadata instead of the wall clock.
func (r *Renderer) WithCreationDate(ts time.Time) *Renderer {
	clone := *r
	clone.creationDate = ts
	return &clone
}

// Render draws the fields onto the template at the layout's placements and
// returns the finished PDF bytes. The same template, layout, and fields
// always yield the same output when the creation date is pinned.
func (r *Renderer) Render(template []byte, layout types.CertificateLayout, fields Fields) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid certificate layout")
	}

	img, _, err := image.Decode(bytes.NewReader(template))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding certificate template image")
	}

	dc := gg.NewContextForImage(img)
	if err := r.drawField(dc, layout.Name, fields.Name); err != nil {
		return nil, err
	}
	if err := r.drawField(dc, layout.Hours, fields.Hours); err != nil {
		return nil, err
	}

	var composited bytes.Buffer
	if err := dc.EncodePNG(&composited); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding composited certificate")
	}

	return r.wrapPDF(&composited, dc.Width(), dc.Height())
}

func (r *Renderer) drawField(dc *gg.Context, placement types.FieldPlacement, text string) error {
	if text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "certificate field text is empty")
	}
	face := truetype.NewFace(r.font, &truetype.Options{
		Size:    placement.FontSize,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetHexColor(placement.Color)
	dc.DrawStringAnchored(text, placement.X, placement.Y, 0.5, 0.5)
	return nil
}

// wrapPDF produces a single page exactly the size of the composited image.
func (r *Renderer) wrapPDF(png *bytes.Buffer, widthPx, heightPx int) ([]byte, error) {
	widthIn := float64(widthPx) / renderDPI
	heightIn := float64(heightPx) / renderDPI

	// fpdf treats the custom size as the portrait size and swaps the sides
	// under "L", so landscape templates must still be declared "P" to keep
	// the page dimensions as given.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: widthIn, Ht: heightIn},
	})
	if !r.creationDate.IsZero() {
		pdf.SetCreationDate(r.creationDate)
		pdf.SetModificationDate(r.creationDate)
	}
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("certificate", opts, png)
	pdf.ImageOptions("certificate", 0, 0, widthIn, heightIn, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing certificate pdf")
	}
	return out.Bytes(), nil
}
