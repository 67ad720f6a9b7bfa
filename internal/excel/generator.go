package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// QuoteRegister writes all quotes to a workbook with a summary sheet and one
// detail sheet per farmer.
func (g *Generator) QuoteRegister(register model.QuoteRegister) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, register); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, farmer := range farmerOrder(register.Rows) {
		sheetName := buildSheetName(farmer, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, farmer, register.Rows); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, register model.QuoteRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	var total float64
	signed := 0
	for _, row := range register.Rows {
		total += row.FinalPrice
		if row.Status == model.QuoteStatusFullySigned {
			signed++
		}
	}

	set("A1", "Generated at")
	set("B1", register.GeneratedAt.Format("2006-01-02 15:04"))
	set("A2", "Quotes")
	set("B2", len(register.Rows))
	set("A3", "Fully signed")
	set("B3", signed)
	set("A4", "Total value")
	set("B4", total)

	headers := []string{"Quote", "Farmer", "Crop", "Quantity", "Subtotal", "Discount %", "Final price", "Status", "Created"}
	tableRow := 6
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, row := range register.Rows {
		writeQuoteRow(file, sheet, tableRow+1+i, row)
	}
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet, farmer string, rows []model.QuoteRegisterRow) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Farmer")
	set("B1", farmer)

	headers := []string{"Quote", "Farmer", "Crop", "Quantity", "Subtotal", "Discount %", "Final price", "Status", "Created"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		set(cell, header)
	}

	rowNum := 4
	for _, row := range rows {
		if row.FarmerName != farmer {
			continue
		}
		writeQuoteRow(file, sheet, rowNum, row)
		rowNum++
	}
	return nil
}

func writeQuoteRow(file *excelize.File, sheet string, rowNum int, row model.QuoteRegisterRow) {
	values := []interface{}{
		row.QuoteNumber,
		row.FarmerName,
		row.CropName,
		row.Quantity,
		row.Subtotal,
		row.DiscountPercent,
		row.FinalPrice,
		string(row.Status),
		row.CreatedAt.Format(time.RFC3339),
	}
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		_ = file.SetCellValue(sheet, cell, value)
	}
}

func farmerOrder(rows []model.QuoteRegisterRow) []string {
	seen := make(map[string]struct{}, len(rows))
	var order []string
	for _, row := range rows {
		if _, ok := seen[row.FarmerName]; ok {
			continue
		}
		seen[row.FarmerName] = struct{}{}
		order = append(order, row.FarmerName)
	}
	return order
}

// Sheet names are capped at 31 chars by the xlsx format and must be unique.
func buildSheetName(farmer string, used map[string]struct{}) string {
	name := farmer
	if name == "" {
		name = "farmer"
	}
	if len(name) > 28 {
		name = name[:28]
	}
	candidate := name
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
}
