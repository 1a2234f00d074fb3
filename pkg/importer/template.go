package importer

import (
	"io"

	"github.com/tealeg/xlsx/v3"
)

// TemplateHeader is the header row of a blank import workbook.
var TemplateHeader = []string{"Asset Type", "Location Code", "Quantity", "Unit Cost", "Purchase Date", "Supplier", "Invoice", "Notes"}

// WriteSheet writes a single-sheet workbook with rows as plain text cells.
func WriteSheet(w io.Writer, sheetName string, rows [][]string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet(sheetName)
	if err != nil {
		return err
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	return wb.Write(w)
}

// WriteTemplate writes an empty purchase workbook with the expected header.
func WriteTemplate(w io.Writer) error {
	return WriteSheet(w, DefaultSheet, [][]string{TemplateHeader})
}
