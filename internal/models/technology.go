package models

// technology 表的列名
const (
	ColCategory = "category"
	ColItems    = "items"
	ColValue    = "value"
)

// TechnologyRecord 技术表中的一行
//
// A row with an empty Category is a reference value: Item is its key and
// Value the constant. A row with both Category and Item set is a
// technology item whose Value is an adoption percentage.
type TechnologyRecord struct {
	Category string  `json:"category"`
	Item     string  `json:"items"`
	Value    float64 `json:"value"`
}

// IsItem reports whether the row is a technology item rather than a reference value.
func (r TechnologyRecord) IsItem() bool {
	return r.Category != "" && r.Item != ""
}

// TechnologyTable keeps the rows in sheet order.
type TechnologyTable []TechnologyRecord

// Items returns the technology-item rows in table order.
func (t TechnologyTable) Items() []TechnologyRecord {
	items := make([]TechnologyRecord, 0, len(t))
	for _, r := range t {
		if r.IsItem() {
			items = append(items, r)
		}
	}
	return items
}
