package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"finchat/internal/core"
	"finchat/internal/source"
)

// Loader reads a snapshot from a JSON file on disk.
type Loader struct {
	path string
}

var _ source.SnapshotLoader = (*Loader)(nil)

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// totalSeriesName is the projection series carrying the household total
// rather than a single asset.
const totalSeriesName = "Total Assets"

type (
	snapshotDoc struct {
		TotalNetIncome float64          `json:"total_net_income"`
		TotalExpenses  float64          `json:"total_expenses"`
		IncomeSummary  []ownerIncomeDoc `json:"income_summary"`
		Assets         []assetDoc       `json:"assets"`
		CashFlows      []cashFlowDoc    `json:"cash_flows"`
		Projections    *projectionsDoc  `json:"projections"`
	}

	ownerIncomeDoc struct {
		Owner         string         `json:"owner"`
		TaxableIncome float64        `json:"taxable_income"`
		Tax           float64        `json:"tax"`
		NetIncome     float64        `json:"net_income"`
		TaxDetails    *taxDetailsDoc `json:"tax_details"`
	}

	taxDetailsDoc struct {
		TaxFreeAllowance     float64 `json:"tax_free_allowance"`
		BasicRateAmount      float64 `json:"basic_rate_amount"`
		HigherRateAmount     float64 `json:"higher_rate_amount"`
		AdditionalRateAmount float64 `json:"additional_rate_amount"`
	}

	assetDoc struct {
		Description    string        `json:"description"`
		Owner          string        `json:"owner"`
		CapitalValue   float64       `json:"capital_value"`
		MonthlyValue   float64       `json:"monthly_value"`
		PeriodValue    float64       `json:"period_value"`
		GrowthRate     growthRateDoc `json:"growth_rate"`
		DepletionYears float64       `json:"depletion_years"`
	}

	cashFlowDoc struct {
		Description  string  `json:"description"`
		Owner        string  `json:"owner"`
		Type         string  `json:"type"`
		MonthlyValue float64 `json:"monthly_value"`
	}

	projectionsDoc struct {
		Years  []int           `json:"years"`
		Assets []projectionDoc `json:"assets"`
	}

	projectionDoc struct {
		Name   string    `json:"name"`
		Values []float64 `json:"values"`
	}
)

// growthRateDoc accepts either a display string ("4.5%") or a numeric
// fraction (0.045), matching the two shapes upstream exporters produce.
type growthRateDoc struct {
	core.GrowthRate
}

func (g *growthRateDoc) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		g.Text = text
		return nil
	}
	var rate float64
	if err := json.Unmarshal(data, &rate); err != nil {
		return fmt.Errorf("growth rate must be a string or a number: %w", err)
	}
	g.Rate = rate
	return nil
}

// Load reads, decodes and validates the snapshot file. A projection series
// named "Total Assets" becomes the household total rather than an asset.
func (l *Loader) Load(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot file %s: %w", l.path, err)
	}

	snapshot := core.Snapshot{
		TotalNetIncome: doc.TotalNetIncome,
		TotalExpenses:  doc.TotalExpenses,
	}

	for _, oi := range doc.IncomeSummary {
		income := core.OwnerIncome{
			Owner:         oi.Owner,
			TaxableIncome: oi.TaxableIncome,
			Tax:           oi.Tax,
			NetIncome:     oi.NetIncome,
		}
		if oi.TaxDetails != nil {
			income.TaxDetails = &core.TaxDetails{
				TaxFreeAllowance:     oi.TaxDetails.TaxFreeAllowance,
				BasicRateAmount:      oi.TaxDetails.BasicRateAmount,
				HigherRateAmount:     oi.TaxDetails.HigherRateAmount,
				AdditionalRateAmount: oi.TaxDetails.AdditionalRateAmount,
			}
		}
		snapshot.IncomeSummary = append(snapshot.IncomeSummary, income)
	}

	for _, a := range doc.Assets {
		snapshot.Assets = append(snapshot.Assets, core.Asset{
			ID:             core.NewAssetID(a.Description, a.Owner),
			Description:    a.Description,
			Owner:          a.Owner,
			CapitalValue:   a.CapitalValue,
			MonthlyValue:   a.MonthlyValue,
			PeriodValue:    a.PeriodValue,
			GrowthRate:     a.GrowthRate.GrowthRate,
			DepletionYears: a.DepletionYears,
		})
	}

	for _, cf := range doc.CashFlows {
		snapshot.CashFlows = append(snapshot.CashFlows, core.CashFlow{
			Description:  cf.Description,
			Owner:        cf.Owner,
			Type:         core.FlowType(strings.TrimSpace(cf.Type)),
			MonthlyValue: cf.MonthlyValue,
		})
	}

	if doc.Projections != nil {
		set := &core.ProjectionSet{Years: doc.Projections.Years}
		for _, p := range doc.Projections.Assets {
			if strings.EqualFold(strings.TrimSpace(p.Name), totalSeriesName) {
				set.Total = p.Values
				continue
			}
			set.Assets = append(set.Assets, core.AssetProjection{
				ID:     core.AssetID(p.Name),
				Name:   p.Name,
				Values: p.Values,
			})
		}
		snapshot.Projections = set
	}

	if err := snapshot.Validate(); err != nil {
		return core.Snapshot{}, fmt.Errorf("invalid snapshot in %s: %w", l.path, err)
	}

	return snapshot, nil
}
