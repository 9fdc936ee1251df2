package aggregate

import (
	"github.com/feichai0017/hasty/internal/models"
)

// Reference value keys in the technology table's items column.
const (
	RefAgMaleTotal          = "Ag_unique_M_Total"
	RefAgFemaleTotal        = "Ag_unique_F_Total"
	RefLivMaleTotal         = "Liv_unique_M_Total"
	RefLivFemaleTotal       = "Liv_unique_F_Total"
	RefAgTechPercent        = "overall_ag_Tech_Pecent"
	RefLivTechPercent       = "overall_liv_Tech_Pecent"
	RefOverallYouthRatio    = "Overall_Age_15-29_ratio"
	RefAgTotal              = "Ag_unique_MF_Total"
	RefLivestockTotal       = "Livestock_unique_MF_Total"
	RefWildTotal            = "Wildcaught_unique_MF_Total"
	RefAquaTotal            = "Aqua_unique_MF_Total"
	RefNaturalResourceTotal = "NaturalR_unique_MF_Total"
)

// headerReferences must all be present before any technology row is built.
var headerReferences = []string{
	RefAgMaleTotal,
	RefAgFemaleTotal,
	RefLivMaleTotal,
	RefLivFemaleTotal,
	RefAgTechPercent,
	RefLivTechPercent,
	RefOverallYouthRatio,
}

// References indexes the technology table by the items column. When a key
// appears more than once the first row wins.
type References map[string]float64

// NewReferences builds the index once, before aggregation.
func NewReferences(table models.TechnologyTable) References {
	refs := make(References, len(table))
	for _, r := range table {
		if _, ok := refs[r.Item]; ok {
			continue
		}
		refs[r.Item] = r.Value
	}
	return refs
}

// Require fails with a *ReferenceError listing every absent key.
func (r References) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &ReferenceError{Keys: missing}
	}
	return nil
}

// Get returns the value for key or a *ReferenceError.
func (r References) Get(key string) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, &ReferenceError{Keys: []string{key}}
	}
	return v, nil
}

// scaled returns r[total] * r[percent] / 100.
func (r References) scaled(total, percent string) (float64, error) {
	if err := r.Require(total, percent); err != nil {
		return 0, err
	}
	return r[total] * r[percent] / 100, nil
}
