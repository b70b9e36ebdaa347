package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/types"
)

func templatePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode template: %v", err)
	}
	return buf.Bytes()
}

func testLayout() types.CertificateLayout {
	return types.CertificateLayout{
		Name:  types.FieldPlacement{X: 200, Y: 120, FontSize: 28, Color: "#1a1a1a"},
		Hours: types.FieldPlacement{X: 200, Y: 180, FontSize: 20, Color: "#444444"},
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRenderProducesPDF(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(templatePNG(t, 400, 300), testLayout(), Fields{Name: "Ada Lovelace", Hours: "06"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:8])
	}
	// 400x300px at 150 DPI is a 192x144pt landscape page. The page must keep
	// the image's own aspect, not a transposed one.
	if !bytes.Contains(out, []byte("/MediaBox [0 0 192.00 144.00]")) {
		t.Fatal("page size does not match the template dimensions")
	}
}

func TestRenderPortraitTemplatePageSize(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(templatePNG(t, 300, 400), testLayout(), Fields{Name: "Ada Lovelace", Hours: "06"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("/MediaBox [0 0 144.00 192.00]")) {
		t.Fatal("page size does not match the template dimensions")
	}
}

func TestRenderDeterministic(t *testing.T) {
	pinned := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	r := newRenderer(t).WithCreationDate(pinned)

	template := templatePNG(t, 400, 300)
	fields := Fields{Name: "Ada Lovelace", Hours: "06"}

	first, err := r.Render(template, testLayout(), fields)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := r.Render(template, testLayout(), fields)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same inputs must yield identical bytes")
	}
}

func TestRenderChangesWithFields(t *testing.T) {
	pinned := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	r := newRenderer(t).WithCreationDate(pinned)
	template := templatePNG(t, 400, 300)

	a, err := r.Render(template, testLayout(), Fields{Name: "Ada Lovelace", Hours: "06"})
	if err != nil {
		t.Fatalf("render a: %v", err)
	}
	b, err := r.Render(template, testLayout(), Fields{Name: "Grace Hopper", Hours: "06"})
	if err != nil {
		t.Fatalf("render b: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("different names must yield different output")
	}
}

func TestRenderRejectsBadTemplate(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render([]byte("not an image"), testLayout(), Fields{Name: "Ada", Hours: "01"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRenderRejectsBadLayout(t *testing.T) {
	r := newRenderer(t)
	layout := testLayout()
	layout.Name.FontSize = 0
	_, err := r.Render(templatePNG(t, 100, 100), layout, Fields{Name: "Ada", Hours: "01"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRenderRejectsEmptyName(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render(templatePNG(t, 100, 100), testLayout(), Fields{Name: "", Hours: "01"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
