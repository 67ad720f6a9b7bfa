// Package signing composes signature images onto stored quote documents.
package signing

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

// Placement positions a signature image on a PDF page. X and Y are in points
// with Y measured from the bottom edge; Width is the rendered image width and
// height follows the image aspect ratio. Page is zero-based.
type Placement struct {
	Page  int
	X     float64
	Y     float64
	Width float64
}

const (
	defaultWidth  = 150
	defaultY      = 50
	sellerAnchorX = 50
	buyerAnchorX  = 330
)

// Caller-input failures; everything else Overlay returns is a composition
// failure in the PDF machinery.
var (
	ErrUnsupportedImage = errors.New("unsupported signature image format")
	ErrPageOutOfRange   = errors.New("page out of range")
)

// RoleAnchor returns the default placement for a role. The two roles use
// distinct horizontal offsets so both signatures stay visible on the page.
func RoleAnchor(role model.SignerRole) Placement {
	x := float64(sellerAnchorX)
	if role == model.RoleBuyer {
		x = buyerAnchorX
	}
	return Placement{Page: 0, X: x, Y: defaultY, Width: defaultWidth}
}

// Overlay draws the signature image onto the given page of the source PDF and
// returns the rebuilt document. All pages of the source are carried over.
func Overlay(src, signature []byte, p Placement) ([]byte, error) {
	imgType := imageType(signature)
	if imgType == "" {
		return nil, ErrUnsupportedImage
	}
	if p.Width <= 0 {
		p.Width = defaultWidth
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))

	templates := map[int]int{1: imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")}
	sizes := imp.GetPageSizes()
	pageCount := len(sizes)
	for n := 2; n <= pageCount; n++ {
		templates[n] = imp.ImportPageFromStream(pdf, &rs, n, "/MediaBox")
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("import source pdf: %w", err)
	}
	if p.Page < 0 || p.Page >= pageCount {
		return nil, fmt.Errorf("%w: page %d, document has %d", ErrPageOutOfRange, p.Page, pageCount)
	}

	opts := gofpdf.ImageOptions{ImageType: imgType}
	info := pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(signature))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("read signature image: %w", err)
	}
	if info.Width() <= 0 {
		return nil, fmt.Errorf("signature image has no width")
	}
	imgHeight := p.Width * info.Height() / info.Width()

	for n := 1; n <= pageCount; n++ {
		box := sizes[n]["/MediaBox"]
		w, h := box["w"], box["h"]
		orientation := "P"
		if w > h {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, templates[n], 0, 0, w, h)

		if n-1 == p.Page {
			// gofpdf uses a top-left origin, the placement a bottom-left one.
			yTop := h - p.Y - imgHeight
			pdf.ImageOptions("signature", p.X, yTop, p.Width, imgHeight, false, opts, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageType(b []byte) string {
	switch {
	case len(b) >= 8 && bytes.Equal(b[:8], []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(b) >= 3 && b[0] == 0xff && b[1] == 0xd8 && b[2] == 0xff:
		return "JPG"
	case len(b) >= 6 && (bytes.Equal(b[:6], []byte("GIF87a")) || bytes.Equal(b[:6], []byte("GIF89a"))):
		return "GIF"
	}
	return ""
}
