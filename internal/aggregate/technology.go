package aggregate

import (
	"strings"

	"github.com/feichai0017/hasty/internal/models"
)

// Technology sheet header labels
const (
	LabelSmallholder = "Smallholder Producer"

	totalParticipantsPrefix = "Total Participants - "
	livestockManagement     = "livestock management"
)

// Technology categories
const (
	CategoryAgriculture     = "agriculture"
	CategoryLivestock       = "livestock"
	CategoryWild            = "wild"
	CategoryAquaculture     = "aquaculture"
	CategoryNaturalResource = "naturalresource"
)

// TotalParticipantsLabel is the Technology row label for a commodity's participant total.
func TotalParticipantsLabel(commodity string) string {
	return totalParticipantsPrefix + commodity
}

// Technology builds the technology adoption table from the technology sheet
// and the raw participants rows.
func Technology(tech models.TechnologyTable, participants []models.ParticipantRecord) (models.LabeledResultTable, error) {
	refs := NewReferences(tech)
	if err := refs.Require(headerReferences...); err != nil {
		return models.LabeledResultTable{}, err
	}

	agPct := refs[RefAgTechPercent]
	livPct := refs[RefLivTechPercent]

	// male and female are whole people; the total is their rounded sum
	male := round0(refs[RefAgMaleTotal]*agPct/100 + refs[RefLivMaleTotal]*livPct/100)
	female := round0(refs[RefAgFemaleTotal]*agPct/100 + refs[RefLivFemaleTotal]*livPct/100)
	total := male + female
	youth := refs[RefOverallYouthRatio] / 100

	out := models.LabeledResultTable{Name: models.SheetTechnology}
	out.Add(LabelSmallholder, total)
	out.Add(string(models.DisaggregateSex), total)
	out.Add(string(models.DisaggregateMale), male)
	out.Add(string(models.DisaggregateFemale), female)
	out.Add(string(models.DisaggregateAge), total)
	out.Add(string(models.DisaggregateYouth), round0(total*youth))
	out.Add(string(models.DisaggregateAdult), round0(total*(1-youth)))

	for _, item := range tech.Items() {
		base, err := technologyBase(refs, item)
		if err != nil {
			return models.LabeledResultTable{}, err
		}
		if base > 0 {
			out.Add(item.Item, round0(base*(item.Value/100)))
		}
	}

	for _, g := range Partition(participants) {
		var sum float64
		for _, r := range g.Rows {
			sum += r.TotalMF
		}
		out.Add(TotalParticipantsLabel(g.Name), sum)
	}

	return out, nil
}

// technologyBase resolves the population an item's adoption percentage
// applies to. The livestock management name is matched before the category,
// so it keeps the livestock base even when tagged as agriculture.
// Unknown categories yield 0.
func technologyBase(refs References, item models.TechnologyRecord) (float64, error) {
	if strings.ToLower(item.Item) == livestockManagement {
		return refs.scaled(RefLivestockTotal, RefLivTechPercent)
	}

	switch strings.ToLower(item.Category) {
	case CategoryAgriculture:
		return refs.scaled(RefAgTotal, RefAgTechPercent)
	case CategoryLivestock:
		return refs.scaled(RefLivestockTotal, RefLivTechPercent)
	case CategoryWild:
		return refs.Get(RefWildTotal)
	case CategoryAquaculture:
		return refs.Get(RefAquaTotal)
	case CategoryNaturalResource:
		return refs.Get(RefNaturalResourceTotal)
	default:
		return 0, nil
	}
}
