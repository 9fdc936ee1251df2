// Package aggregate turns the participants and technology tables of a
// survey workbook into the Indicator Tracking Table: one result table per
// commodity, the Technology table and the Hectare table.
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/hasty/internal/models"
	"github.com/feichai0017/hasty/pkg/logger"
)

// Report is the complete output of one run.
type Report struct {
	Commodities []models.CommodityResultTable `json:"commodities"`
	Technology  models.LabeledResultTable     `json:"technology"`
	Hectare     models.LabeledResultTable     `json:"hectare"`
}

// CommodityGroup holds the participants rows of one commodity.
type CommodityGroup struct {
	Name string
	Rows []models.ParticipantRecord
}

// Partition groups rows by commodity_name in first-appearance order.
func Partition(rows []models.ParticipantRecord) []CommodityGroup {
	index := make(map[string]int)
	groups := make([]CommodityGroup, 0)

	for _, r := range rows {
		i, ok := index[r.CommodityName]
		if !ok {
			i = len(groups)
			index[r.CommodityName] = i
			groups = append(groups, CommodityGroup{Name: r.CommodityName})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// CommodityNames lists the distinct commodities in first-appearance order.
func CommodityNames(rows []models.ParticipantRecord) []string {
	groups := Partition(rows)
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

// Build runs the three aggregators in dependency order. Either the whole
// report is returned or an error; there is no partial result.
func Build(
	ctx context.Context,
	participants []models.ParticipantRecord,
	tech models.TechnologyTable,
	opts ...Option,
) (*Report, error) {
	cfg := applyOptions(opts)
	log := cfg.logger

	// Technology only reads raw input, so missing references fail the run
	// before any commodity work starts.
	technology, err := Technology(tech, participants)
	if err != nil {
		log.Error("Technology aggregation failed", logger.Error(err))
		return nil, fmt.Errorf("technology aggregation: %w", err)
	}

	groups := Partition(participants)
	tables := make([]models.CommodityResultTable, len(groups))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			table, err := Commodity(group.Rows)
			if err != nil {
				return fmt.Errorf("commodity %q: %w", group.Name, err)
			}
			tables[i] = table

			defaulted := 0
			for _, r := range group.Rows {
				if r.PerDollarRate == 0 {
					defaulted++
				}
			}
			if defaulted > 0 {
				log.Warn("per_dollar_rate missing or zero, using 1",
					logger.String("commodity", group.Name),
					logger.Int("rows", defaulted),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			log.Info("Commodity aggregated",
				logger.String("commodity", group.Name),
				logger.String("type", string(table.Type)),
				logger.Int("rows", len(group.Rows)),
			)
			cfg.progress(Progress{Completed: done, Total: len(groups), Commodity: group.Name})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Commodity aggregation failed", logger.Error(err))
		return nil, err
	}

	return &Report{
		Commodities: tables,
		Technology:  technology,
		Hectare:     Hectare(tables, tech),
	}, nil
}
