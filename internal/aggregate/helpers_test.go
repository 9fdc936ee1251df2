package aggregate

import (
	"math"
	"testing"

	"github.com/feichai0017/hasty/internal/models"
)

const tolerance = 0.0101

func assertNear(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func assertLabels(t *testing.T, table models.LabeledResultTable, want []string) {
	t.Helper()
	if len(table.Rows) != len(want) {
		labels := make([]string, len(table.Rows))
		for i, r := range table.Rows {
			labels[i] = r.Label
		}
		t.Fatalf("expected %d rows %v, got %d rows %v", len(want), want, len(table.Rows), labels)
	}
	for i, w := range want {
		if table.Rows[i].Label != w {
			t.Errorf("row %d: expected label %q, got %q", i, w, table.Rows[i].Label)
		}
	}
}

func mustLookup(t *testing.T, table models.LabeledResultTable, label string) float64 {
	t.Helper()
	v, ok := table.Lookup(label)
	if !ok {
		t.Fatalf("row %q not found in %s", label, table.Name)
	}
	return v
}

func maizeRow() models.ParticipantRecord {
	return models.ParticipantRecord{
		CommodityName:   "Maize",
		CommodityType:   "agriculture",
		Male:            10,
		Female:          5,
		TotalMF:         15,
		YouthRatio:      40,
		ProductionArea:  2,
		AreaUnit:        "ha",
		TotalProduction: 4,
		ProductionUnit:  "other",
	}
}

func referenceTable() models.TechnologyTable {
	return models.TechnologyTable{
		{Item: RefAgMaleTotal, Value: 100},
		{Item: RefAgFemaleTotal, Value: 80},
		{Item: RefLivMaleTotal, Value: 50},
		{Item: RefLivFemaleTotal, Value: 40},
		{Item: RefAgTechPercent, Value: 50},
		{Item: RefLivTechPercent, Value: 20},
		{Item: RefOverallYouthRatio, Value: 30},
		{Item: RefAgTotal, Value: 200},
		{Item: RefLivestockTotal, Value: 90},
		{Item: RefWildTotal, Value: 0},
		{Item: RefAquaTotal, Value: 40},
		{Item: RefNaturalResourceTotal, Value: 10},
	}
}
