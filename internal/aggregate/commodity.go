package aggregate

import (
	"fmt"

	"github.com/feichai0017/hasty/internal/models"
)

var sexes = []models.Sex{models.SexMale, models.SexFemale}

type sexTotals struct {
	male   float64
	female float64
}

func (t *sexTotals) add(s models.Sex, v float64) {
	if s == models.SexFemale {
		t.female += v
		return
	}
	t.male += v
}

func (t sexTotals) total() float64 {
	return t.male + t.female
}

// split expands the totals into the six disaggregate values, in
// models.Disaggregates order. The age split reuses one commodity-level
// youth fraction for every section.
func (t sexTotals) split(youth float64) []float64 {
	total := t.total()
	return []float64{total, t.male, t.female, total, total * youth, total * (1 - youth)}
}

// YouthFraction is the share of participants aged 15-29, as a fraction.
// Ratios are weighted by totalmf; when nobody is counted it falls back to
// the plain mean.
func YouthFraction(rows []models.ParticipantRecord) float64 {
	if len(rows) == 0 {
		return 0
	}

	var weights, weighted, plain float64
	for _, r := range rows {
		weights += r.TotalMF
		weighted += r.YouthRatio * r.TotalMF
		plain += r.YouthRatio
	}

	if weights > 0 {
		return (weighted / weights) / 100
	}
	return (plain / float64(len(rows))) / 100
}

// Commodity reduces every row of one commodity to its result table.
// The caller partitions participants by commodity_name; the name and type
// of the table come from the first row.
func Commodity(rows []models.ParticipantRecord) (models.CommodityResultTable, error) {
	if len(rows) == 0 {
		return models.CommodityResultTable{}, ErrEmptyCommodity
	}

	name := rows[0].CommodityName
	ct := rows[0].Type()
	for i, r := range rows {
		if r.CommodityName != name {
			return models.CommodityResultTable{}, fmt.Errorf("%w: row %d is %q, group is %q",
				ErrMixedCommodity, i, r.CommodityName, name)
		}
	}

	var production, area, participants, value, volume sexTotals
	for _, r := range rows {
		rowType := r.Type()
		for _, s := range sexes {
			count := r.Count(s)
			production.add(s, ProductionContribution(rowType, r.ProductionUnit, count, r.TotalProduction))
			area.add(s, AreaContribution(r.AreaUnit, count, r.ProductionArea))
			participants.add(s, count)
			value.add(s, ValueContribution(count, r.ValueSales, r.DollarRate()))
			volume.add(s, VolumeContribution(rowType, r.SalesUnit, count, r.QuantitySales))
		}
	}

	youth := YouthFraction(rows)

	var yield float64
	if area.total() != 0 {
		yield = production.total() / area.total()
	}

	table := models.CommodityResultTable{
		Name: name,
		Type: ct,
		Rows: make([]models.CommodityResultRow, 0, 1+len(models.Sections)*len(models.Disaggregates)),
	}
	table.Rows = append(table.Rows, models.CommodityResultRow{
		CommodityName: name,
		CommodityType: ct,
		Section:       models.SectionOverall,
		Disaggregate:  models.DisaggregateYield,
		Result:        round2(yield),
		Unit:          models.UnitYield,
	})

	sections := []struct {
		section models.Section
		totals  sexTotals
		unit    string
	}{
		{models.SectionTotalProduction, production, models.UnitTonneOrUnit},
		{models.SectionProductionArea, area, models.UnitHaOrUnit},
		{models.SectionParticipants, participants, models.UnitCount},
		{models.SectionValueOfSales, value, models.UnitUSD},
		{models.SectionVolumeOfSales, volume, models.UnitTonneOrUnit},
	}
	for _, sec := range sections {
		values := sec.totals.split(youth)
		for i, d := range models.Disaggregates {
			table.Rows = append(table.Rows, models.CommodityResultRow{
				CommodityName: name,
				CommodityType: ct,
				Section:       sec.section,
				Disaggregate:  d,
				Result:        round2(values[i]),
				Unit:          sec.unit,
			})
		}
	}

	return table, nil
}
