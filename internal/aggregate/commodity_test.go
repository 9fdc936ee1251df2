package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/feichai0017/hasty/internal/models"
)

func TestCommodityMaizeScenario(t *testing.T) {
	rows := []models.ParticipantRecord{
		maizeRow(),
		{CommodityName: "Maize", CommodityType: "agriculture"},
	}

	table, err := Commodity(rows)
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	if table.Name != "Maize" || table.Type != models.CommodityAgriculture {
		t.Errorf("unexpected table identity %q/%q", table.Name, table.Type)
	}

	checks := []struct {
		section  models.Section
		d        models.Disaggregate
		expected float64
	}{
		{models.SectionOverall, models.DisaggregateYield, 2.0},
		{models.SectionParticipants, models.DisaggregateSex, 15},
		{models.SectionParticipants, models.DisaggregateMale, 10},
		{models.SectionParticipants, models.DisaggregateFemale, 5},
		{models.SectionParticipants, models.DisaggregateYouth, 6},
		{models.SectionParticipants, models.DisaggregateAdult, 9},
		{models.SectionTotalProduction, models.DisaggregateSex, 60},
		{models.SectionProductionArea, models.DisaggregateSex, 30},
	}
	for _, c := range checks {
		assertNear(t, table.Value(c.section, c.d), c.expected, string(c.section)+"/"+string(c.d))
	}
}

func TestCommodityRowLayout(t *testing.T) {
	table, err := Commodity([]models.ParticipantRecord{maizeRow()})
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	if len(table.Rows) != 31 {
		t.Fatalf("expected 31 rows, got %d", len(table.Rows))
	}

	first := table.Rows[0]
	if first.Section != models.SectionOverall || first.Disaggregate != models.DisaggregateYield || first.Unit != models.UnitYield {
		t.Errorf("unexpected first row %+v", first)
	}

	units := map[models.Section]string{
		models.SectionTotalProduction: models.UnitTonneOrUnit,
		models.SectionProductionArea:  models.UnitHaOrUnit,
		models.SectionParticipants:    models.UnitCount,
		models.SectionValueOfSales:    models.UnitUSD,
		models.SectionVolumeOfSales:   models.UnitTonneOrUnit,
	}

	i := 1
	for _, sec := range models.Sections {
		for _, d := range models.Disaggregates {
			r := table.Rows[i]
			if r.Section != sec || r.Disaggregate != d {
				t.Errorf("row %d: expected %s/%s, got %s/%s", i, sec, d, r.Section, r.Disaggregate)
			}
			if r.Unit != units[sec] {
				t.Errorf("row %d: expected unit %s, got %s", i, units[sec], r.Unit)
			}
			if r.CommodityName != "Maize" || r.CommodityType != models.CommodityAgriculture {
				t.Errorf("row %d: unexpected identity %q/%q", i, r.CommodityName, r.CommodityType)
			}
			i++
		}
	}
}

func TestCommodityDisaggregateInvariants(t *testing.T) {
	rows := []models.ParticipantRecord{
		{
			CommodityName: "Rice", CommodityType: "Agriculture",
			Male: 7, Female: 3, TotalMF: 10, YouthRatio: 35,
			ProductionArea: 40, AreaUnit: "dec",
			TotalProduction: 1200, ProductionUnit: "kg",
			QuantitySales: 800, SalesUnit: "kg",
			ValueSales: 25000, PerDollarRate: 110,
		},
		{
			CommodityName: "Rice", CommodityType: "Agriculture",
			Male: 2, Female: 9, TotalMF: 11, YouthRatio: 60,
			ProductionArea: 1.5, AreaUnit: "acre",
			TotalProduction: 2, ProductionUnit: "tonne",
			QuantitySales: 1, SalesUnit: "tonne",
			ValueSales: 333.33, PerDollarRate: 1,
		},
	}

	table, err := Commodity(rows)
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	for _, sec := range models.Sections {
		sex := table.Value(sec, models.DisaggregateSex)
		male := table.Value(sec, models.DisaggregateMale)
		female := table.Value(sec, models.DisaggregateFemale)
		age := table.Value(sec, models.DisaggregateAge)
		youth := table.Value(sec, models.DisaggregateYouth)
		adult := table.Value(sec, models.DisaggregateAdult)

		assertNear(t, sex, male+female, string(sec)+" Sex == Male+Female")
		assertNear(t, age, sex, string(sec)+" Age == Sex")
		assertNear(t, youth+adult, sex, string(sec)+" 15-29 + 30+ == Sex")
	}
}

func TestCommodityYieldGuard(t *testing.T) {
	row := maizeRow()
	row.ProductionArea = 0

	table, err := Commodity([]models.ParticipantRecord{row})
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	yield := table.Value(models.SectionOverall, models.DisaggregateYield)
	if yield != 0 || math.IsNaN(yield) {
		t.Errorf("expected yield 0 when area is 0, got %v", yield)
	}
}

func TestCommodityCurrencyGuard(t *testing.T) {
	row := maizeRow()
	row.ValueSales = 100
	row.PerDollarRate = 0

	table, err := Commodity([]models.ParticipantRecord{row})
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	assertNear(t, table.Value(models.SectionValueOfSales, models.DisaggregateMale), 1000, "male value")
	assertNear(t, table.Value(models.SectionValueOfSales, models.DisaggregateSex), 1500, "total value")
}

func TestCommodityLivestockType(t *testing.T) {
	row := models.ParticipantRecord{
		CommodityName: "Poultry", CommodityType: " Livestock ",
		Male: 1, Female: 1, TotalMF: 2,
		TotalProduction: 500, ProductionUnit: "kg",
		QuantitySales: 300, SalesUnit: "kg",
	}

	table, err := Commodity([]models.ParticipantRecord{row})
	if err != nil {
		t.Fatalf("Commodity failed: %v", err)
	}

	if table.Type != models.CommodityLivestock {
		t.Errorf("expected normalized type livestock, got %q", table.Type)
	}
	assertNear(t, table.Value(models.SectionTotalProduction, models.DisaggregateSex), 1000, "livestock production")
	assertNear(t, table.Value(models.SectionVolumeOfSales, models.DisaggregateSex), 600, "livestock volume")
}

func TestCommodityErrors(t *testing.T) {
	tests := []struct {
		name     string
		rows     []models.ParticipantRecord
		expected error
	}{
		{"empty group", nil, ErrEmptyCommodity},
		{
			"mixed names",
			[]models.ParticipantRecord{maizeRow(), {CommodityName: "Rice"}},
			ErrMixedCommodity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Commodity(tt.rows)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestYouthFraction(t *testing.T) {
	tests := []struct {
		name     string
		rows     []models.ParticipantRecord
		expected float64
	}{
		{"no rows", nil, 0},
		{
			"weighted by totalmf",
			[]models.ParticipantRecord{{TotalMF: 30, YouthRatio: 20}, {TotalMF: 10, YouthRatio: 60}},
			0.3,
		},
		{
			"mean when nobody counted",
			[]models.ParticipantRecord{{YouthRatio: 20}, {YouthRatio: 60}},
			0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YouthFraction(tt.rows)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
