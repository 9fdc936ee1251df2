package converters

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/internal/models"
)

// Input sheet names
const (
	SheetParticipants = "participants"
	SheetTechnology   = "technology"
)

// Preview sizes used by the upload page.
const (
	DefaultParticipantPreviewRows = 20
	DefaultTechnologyPreviewRows  = 31
)

// Workbook 解析后的输入工作簿
type Workbook struct {
	Participants []models.ParticipantRecord
	Technology   models.TechnologyTable

	participants sheet
	technology   sheet
}

// sheet keeps the raw header and non-blank data rows of one worksheet.
type sheet struct {
	name   string
	header []string
	rows   [][]string
	index  map[string]int
}

func (s sheet) has(col string) bool {
	_, ok := s.index[col]
	return ok
}

func (s sheet) str(row []string, col string) string {
	i, ok := s.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// num coerces a cell to a float; missing, blank and non-numeric cells are 0.
func (s sheet) num(row []string, col string) float64 {
	v := strings.TrimSpace(s.str(row, col))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ReadWorkbook 读取并校验上传的工作簿
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	participants, err := readSheet(f, SheetParticipants)
	if err != nil {
		return nil, err
	}
	technology, err := readSheet(f, SheetTechnology)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{participants: participants, technology: technology}
	if wb.Participants, err = parseParticipants(participants); err != nil {
		return nil, err
	}
	if wb.Technology, err = parseTechnology(technology); err != nil {
		return nil, err
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (sheet, error) {
	found := false
	for _, s := range f.GetSheetList() {
		if s == name {
			found = true
			break
		}
	}
	if !found {
		return sheet{}, &SheetError{Sheet: name}
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet{}, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	s := sheet{name: name, index: make(map[string]int)}
	if len(rows) == 0 {
		return s, nil
	}
	s.header = rows[0]
	for i, h := range s.header {
		// First occurrence of a duplicated column name wins
		if _, ok := s.index[h]; !ok {
			s.index[h] = i
		}
	}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		s.rows = append(s.rows, row)
	}
	return s, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseParticipants(s sheet) ([]models.ParticipantRecord, error) {
	if !s.has(models.ColCommodityName) {
		return nil, &ColumnError{Sheet: s.name, Column: models.ColCommodityName}
	}

	records := make([]models.ParticipantRecord, 0, len(s.rows))
	for i, row := range s.rows {
		rec := models.ParticipantRecord{
			CommodityName:   s.str(row, models.ColCommodityName),
			CommodityType:   s.str(row, models.ColCommodityType),
			Male:            s.num(row, models.ColMale),
			Female:          s.num(row, models.ColFemale),
			TotalMF:         s.num(row, models.ColTotalMF),
			YouthRatio:      s.num(row, models.ColYouthRatio),
			ProductionArea:  s.num(row, models.ColProductionArea),
			AreaUnit:        s.str(row, models.ColAreaUnit),
			TotalProduction: s.num(row, models.ColTotalProduction),
			ProductionUnit:  s.str(row, models.ColProductionUnit),
			QuantitySales:   s.num(row, models.ColQuantitySales),
			SalesUnit:       s.str(row, models.ColSalesUnit),
			ValueSales:      s.num(row, models.ColValueSales),
			PerDollarRate:   s.num(row, models.ColPerDollarRate),
		}
		if strings.TrimSpace(rec.CommodityName) == "" {
			return nil, fmt.Errorf("%w: %s data row %d has no %s", ErrInvalidRow, s.name, i+1, models.ColCommodityName)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseTechnology(s sheet) (models.TechnologyTable, error) {
	for _, col := range []string{models.ColItems, models.ColValue} {
		if !s.has(col) {
			return nil, &ColumnError{Sheet: s.name, Column: col}
		}
	}

	table := make(models.TechnologyTable, 0, len(s.rows))
	for _, row := range s.rows {
		table = append(table, models.TechnologyRecord{
			Category: s.str(row, models.ColCategory),
			Item:     s.str(row, models.ColItems),
			Value:    s.num(row, models.ColValue),
		})
	}
	return table, nil
}

// Preview returns the header and leading data rows of both sheets plus the
// commodities that will be aggregated. Non-positive sizes use the defaults.
func (w *Workbook) Preview(participantRows, technologyRows int) models.WorkbookPreview {
	if participantRows <= 0 {
		participantRows = DefaultParticipantPreviewRows
	}
	if technologyRows <= 0 {
		technologyRows = DefaultTechnologyPreviewRows
	}
	return models.WorkbookPreview{
		Commodities:  aggregate.CommodityNames(w.Participants),
		Participants: w.participants.preview(participantRows),
		Technology:   w.technology.preview(technologyRows),
	}
}

func (s sheet) preview(n int) models.SheetPreview {
	if n > len(s.rows) {
		n = len(s.rows)
	}
	rows := make([][]string, 0, n)
	for _, row := range s.rows[:n] {
		cells := make([]string, len(s.header))
		copy(cells, row)
		rows = append(rows, cells)
	}
	return models.SheetPreview{
		Sheet:  s.name,
		Header: append([]string{}, s.header...),
		Rows:   rows,
		Total:  len(s.rows),
	}
}
