package aggregate

import (
	"strings"

	"github.com/feichai0017/hasty/internal/models"
)

// LabelCropLand heads the Hectare sheet.
const LabelCropLand = "Crop land"

// Hectare summarizes production area over the agriculture commodity tables
// and projects agriculture technology adoption onto the total cropland.
// tables must be in commodity order; non-agriculture tables are ignored.
func Hectare(tables []models.CommodityResultTable, tech models.TechnologyTable) models.LabeledResultTable {
	var selected []models.CommodityResultTable
	for _, t := range tables {
		if t.Type == models.CommodityAgriculture {
			selected = append(selected, t)
		}
	}

	// Production Area values in models.Disaggregates order
	var area [6]float64
	perCommodity := make([]float64, len(selected))
	for i, t := range selected {
		for j, d := range models.Disaggregates {
			area[j] += t.Value(models.SectionProductionArea, d)
		}
		perCommodity[i] = t.Value(models.SectionParticipants, models.DisaggregateSex)
	}

	cropLand := area[0]

	out := models.LabeledResultTable{Name: models.SheetHectare}
	out.Add(LabelCropLand, round2(cropLand))
	for j, d := range models.Disaggregates {
		out.Add(string(d), round2(area[j]))
	}

	for _, item := range tech.Items() {
		if strings.ToLower(strings.TrimSpace(item.Category)) != CategoryAgriculture {
			continue
		}
		out.Add(item.Item, round2(cropLand*item.Value/100))
	}

	for i, t := range selected {
		out.Add(t.Name, perCommodity[i])
	}

	return out
}
