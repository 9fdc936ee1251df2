package models

import "strings"

// participants 表的列名（区分大小写，精确匹配）
const (
	ColCommodityName   = "commodity_name"
	ColCommodityType   = "commodity_type"
	ColMale            = "male"
	ColFemale          = "female"
	ColTotalMF         = "totalmf"
	ColYouthRatio      = "Age_15-29_ratio"
	ColProductionArea  = "production_area"
	ColAreaUnit        = "parea_unit"
	ColTotalProduction = "total_production"
	ColProductionUnit  = "tp_unit"
	ColQuantitySales   = "quantity_sales"
	ColSalesUnit       = "qsales_unit"
	ColValueSales      = "value_sales"
	ColPerDollarRate   = "per_dollar_rate"
)

// DefaultPerDollarRate is used when per_dollar_rate is absent or zero.
const DefaultPerDollarRate = 1.0

// CommodityType 商品类型
type CommodityType string

const (
	CommodityAgriculture CommodityType = "agriculture"
	CommodityLivestock   CommodityType = "livestock"
)

// NormalizeCommodityType trims and lower-cases a raw commodity_type cell.
func NormalizeCommodityType(raw string) CommodityType {
	return CommodityType(strings.ToLower(strings.TrimSpace(raw)))
}

// Sex selects the male or female participant count of a row.
type Sex int

const (
	SexMale Sex = iota
	SexFemale
)

func (s Sex) String() string {
	if s == SexFemale {
		return "female"
	}
	return "male"
}

// ParticipantRecord 参与者表中的一行
//
// Numeric fields that were missing or non-numeric in the sheet are 0.
// Unit tags and the commodity type are kept as read; the aggregators
// normalize them.
type ParticipantRecord struct {
	CommodityName   string  `json:"commodity_name"`
	CommodityType   string  `json:"commodity_type"`
	Male            float64 `json:"male"`
	Female          float64 `json:"female"`
	TotalMF         float64 `json:"totalmf"`
	YouthRatio      float64 `json:"Age_15-29_ratio"`
	ProductionArea  float64 `json:"production_area"`
	AreaUnit        string  `json:"parea_unit"`
	TotalProduction float64 `json:"total_production"`
	ProductionUnit  string  `json:"tp_unit"`
	QuantitySales   float64 `json:"quantity_sales"`
	SalesUnit       string  `json:"qsales_unit"`
	ValueSales      float64 `json:"value_sales"`
	PerDollarRate   float64 `json:"per_dollar_rate"`
}

// Count returns the participant count for one sex.
func (r ParticipantRecord) Count(s Sex) float64 {
	if s == SexFemale {
		return r.Female
	}
	return r.Male
}

// Type returns the normalized commodity type.
func (r ParticipantRecord) Type() CommodityType {
	return NormalizeCommodityType(r.CommodityType)
}

// DollarRate returns the currency conversion rate, falling back to
// DefaultPerDollarRate when the sheet had no usable value.
func (r ParticipantRecord) DollarRate() float64 {
	if r.PerDollarRate == 0 {
		return DefaultPerDollarRate
	}
	return r.PerDollarRate
}
