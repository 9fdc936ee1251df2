package models

// Section 结果表中的分区
type Section string

const (
	SectionOverall         Section = "Overall"
	SectionTotalProduction Section = "Total Production"
	SectionProductionArea  Section = "Production Area"
	SectionParticipants    Section = "Total Number of Participants"
	SectionValueOfSales    Section = "Value of Sales"
	SectionVolumeOfSales   Section = "Volume of Sales"
)

// Sections lists the disaggregated sections in report order.
var Sections = []Section{
	SectionTotalProduction,
	SectionProductionArea,
	SectionParticipants,
	SectionValueOfSales,
	SectionVolumeOfSales,
}

// Disaggregate 分解维度标签
type Disaggregate string

const (
	DisaggregateYield  Disaggregate = "Yield"
	DisaggregateSex    Disaggregate = "Sex"
	DisaggregateMale   Disaggregate = "Male"
	DisaggregateFemale Disaggregate = "Female"
	DisaggregateAge    Disaggregate = "Age"
	DisaggregateYouth  Disaggregate = "15-29"
	DisaggregateAdult  Disaggregate = "30+"
)

// Disaggregates is the fixed row order inside every section except Overall.
var Disaggregates = []Disaggregate{
	DisaggregateSex,
	DisaggregateMale,
	DisaggregateFemale,
	DisaggregateAge,
	DisaggregateYouth,
	DisaggregateAdult,
}

// Result units
const (
	UnitYield       = "Yield"
	UnitTonneOrUnit = "tonne_or_unit"
	UnitHaOrUnit    = "ha_or_unit"
	UnitCount       = "count"
	UnitUSD         = "USD"
)

// Output sheet names and headers
const (
	SheetTechnology = "Technology"
	SheetHectare    = "Hectare"
)

var (
	CommodityResultHeader = []string{"Commodity_Name", "Commodity_type", "Sections", "Disaggregate", "Result", "Unit"}
	LabeledResultHeader   = []string{"Disaggregate/Technology", "Result"}
)

// CommodityResultRow 商品结果表的一行
type CommodityResultRow struct {
	CommodityName string        `json:"commodityName"`
	CommodityType CommodityType `json:"commodityType"`
	Section       Section       `json:"section"`
	Disaggregate  Disaggregate  `json:"disaggregate"`
	Result        float64       `json:"result"`
	Unit          string        `json:"unit"`
}

// CommodityResultTable holds the aggregated rows of one commodity.
type CommodityResultTable struct {
	Name string               `json:"name"`
	Type CommodityType        `json:"type"`
	Rows []CommodityResultRow `json:"rows"`
}

// Value sums the results of every row matching section and disaggregate.
// Missing rows yield 0.
func (t CommodityResultTable) Value(section Section, d Disaggregate) float64 {
	var sum float64
	for _, r := range t.Rows {
		if r.Section == section && r.Disaggregate == d {
			sum += r.Result
		}
	}
	return sum
}

// LabeledResultRow is a (label, result) pair of the Technology and Hectare sheets.
type LabeledResultRow struct {
	Label  string  `json:"label"`
	Result float64 `json:"result"`
}

// LabeledResultTable 技术表和公顷表
type LabeledResultTable struct {
	Name string             `json:"name"`
	Rows []LabeledResultRow `json:"rows"`
}

// Add appends a row.
func (t *LabeledResultTable) Add(label string, result float64) {
	t.Rows = append(t.Rows, LabeledResultRow{Label: label, Result: result})
}

// Lookup returns the result of the first row with the given label.
func (t LabeledResultTable) Lookup(label string) (float64, bool) {
	for _, r := range t.Rows {
		if r.Label == label {
			return r.Result, true
		}
	}
	return 0, false
}
