package converters

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/models"
)

// ReportFileName is the download name of a generated workbook.
const ReportFileName = "commodity_technology_analysis.xlsx"

// XLSXContentType 工作簿的 MIME 类型
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetNameLen = 31

// XLSXWriter 将报表写成工作簿
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write 写出一份报表：每个商品一个工作表，然后是 Technology 和 Hectare
func (x *XLSXWriter) Write(w io.Writer, report *aggregate.Report) error {
	buf, err := x.Render(report)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Render builds the workbook in memory.
func (x *XLSXWriter) Render(report *aggregate.Report) (*bytes.Buffer, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to render")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	names := NewSheetNamer()
	var sheets []string

	for _, table := range report.Commodities {
		name := names.Name(table.Name)
		rows := make([][]interface{}, 0, len(table.Rows))
		for _, r := range table.Rows {
			rows = append(rows, []interface{}{
				r.CommodityName, string(r.CommodityType), string(r.Section), string(r.Disaggregate), r.Result, r.Unit,
			})
		}
		if err := writeSheet(f, name, models.CommodityResultHeader, rows, bold); err != nil {
			return nil, err
		}
		sheets = append(sheets, name)
	}

	for _, table := range []models.LabeledResultTable{report.Technology, report.Hectare} {
		name := names.Name(table.Name)
		rows := make([][]interface{}, 0, len(table.Rows))
		for _, r := range table.Rows {
			rows = append(rows, []interface{}{r.Label, r.Result})
		}
		if err := writeSheet(f, name, models.LabeledResultHeader, rows, bold); err != nil {
			return nil, err
		}
		sheets = append(sheets, name)
	}

	// NewFile always starts with Sheet1
	if !names.Used("Sheet1") {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(sheets[0]); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]interface{}, style int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header of %q: %w", name, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(name, "A", lastCol, 22); err != nil {
		return fmt.Errorf("failed to size columns of %q: %w", name, err)
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, name, err)
		}
	}
	return nil
}

// SheetNamer hands out Excel-safe, unique sheet names.
//
// Names are limited to 31 characters, the characters : \ / ? * [ ] become
// underscores, and a name that clashes (case-insensitively) with an earlier
// one gets a ~N suffix.
type SheetNamer struct {
	used map[string]bool
}

func NewSheetNamer() *SheetNamer {
	return &SheetNamer{used: make(map[string]bool)}
}

// Used reports whether name has already been handed out.
func (n *SheetNamer) Used(name string) bool {
	return n.used[strings.ToLower(name)]
}

// Name returns the sheet name to use for want.
func (n *SheetNamer) Name(want string) string {
	base := sanitizeSheetName(want)
	name := truncateRunes(base, maxSheetNameLen)
	for i := 1; n.Used(name); i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = truncateRunes(base, maxSheetNameLen-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

func sanitizeSheetName(s string) string {
	s = sheetNameReplacer.Replace(strings.TrimSpace(s))
	// Excel rejects names that begin or end with an apostrophe
	s = strings.Trim(s, "'")
	if s == "" {
		return "Sheet"
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
