package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// QuoteDocument renders the quote with its full price breakdown. The blank
// signature lines near the bottom edge line up with the overlay anchors used
// by the signing workflow.
func (g *Generator) QuoteDocument(doc model.QuoteDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(50, 50, 50)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 24, "AGRICULTURAL PRODUCE QUOTE", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 16, fmt.Sprintf("Quote %s dated %s", doc.QuoteNumber, formatDate(doc.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 18, "Seller", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 14, doc.FarmerName, "", 1, "L", false, 0, "")
	pdf.Ln(10)

	headers := []string{"Crop", "Quantity", "Unit price", "Discount", "Final price"}
	widths := []float64{160, 70, 90, 80, 95}
	drawTableRow(pdf, g.fontName, headers, widths, true)
	drawTableRow(pdf, g.fontName, []string{
		doc.CropName,
		fmt.Sprintf("%d", doc.Quantity),
		formatAmount(doc.BasePrice),
		fmt.Sprintf("%.1f%%", doc.DiscountPercent),
		formatAmount(doc.FinalPrice),
	}, widths, false)

	pdf.Ln(10)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 14, fmt.Sprintf("Subtotal: %s", formatAmount(doc.Subtotal)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 14, fmt.Sprintf("Discount (%.1f%%): -%s", doc.DiscountPercent, formatAmount(doc.DiscountAmount)), "", 1, "R", false, 0, "")
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 18, fmt.Sprintf("Total due: %s", formatAmount(doc.FinalPrice)), "", 1, "R", false, 0, "")

	// Signature lines anchored near the bottom, seller left, buyer right.
	_, pageH := pdf.GetPageSize()
	pdf.SetY(pageH - 130)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(250, 14, "Seller: ______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 14, "Buyer: ______________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LeaseAgreement renders the ancillary land lease document for a quote.
func (g *Generator) LeaseAgreement(doc model.LeaseDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(50, 50, 50)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 24, "AGRICULTURAL LAND LEASE AGREEMENT", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 16, fmt.Sprintf("Ancillary to quote %s", doc.QuoteNumber), "", 1, "C", false, 0, "")
	pdf.Ln(14)

	clauses := []string{
		fmt.Sprintf("This agreement is made on %s between %s (the Lessor) and %s (the Lessee).",
			formatDate(doc.StartDate), doc.LessorName, doc.LesseeName),
		fmt.Sprintf("The Lessor leases to the Lessee the land required for the cultivation and delivery of %d units of %s, for a term of %d months commencing %s.",
			doc.Quantity, doc.CropName, doc.TermMonths, formatDate(doc.StartDate)),
		fmt.Sprintf("The consideration payable under the associated quote is %s, inclusive of any quantity discount applied there.",
			formatAmount(doc.FinalPrice)),
		"The Lessee shall use the land exclusively for the agricultural purpose described above and return it in good condition at the end of the term.",
		"This agreement becomes effective once the associated quote has been signed by both parties.",
	}
	for _, clause := range clauses {
		pdf.MultiCell(0, 14, clause, "", "L", false)
		pdf.Ln(6)
	}

	_, pageH := pdf.GetPageSize()
	pdf.SetY(pageH - 130)
	pdf.CellFormat(250, 14, fmt.Sprintf("Lessor: ______________________ /%s/", doc.LessorName), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 14, fmt.Sprintf("Lessee: ______________________ /%s/", doc.LesseeName), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 20, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatAmount(value float64) string {
	return fmt.Sprintf("Rs %.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
