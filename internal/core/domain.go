package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	FlowIncome  FlowType = "Income"
	FlowExpense FlowType = "Expense"
)

type (
	// FlowType classifies a cash flow row as income or expense.
	FlowType string

	// AssetID identifies an asset across the asset list and the projection
	// series. Sources that only carry display names derive it with NewAssetID.
	AssetID string

	// GrowthRate holds a growth rate either as the display text loaded from
	// the source (e.g. "4.5%") or as a numeric fraction (e.g. 0.045).
	// Text takes precedence when non-empty.
	GrowthRate struct {
		Text string
		Rate float64
	}

	// Asset is a single row of the household asset table.
	Asset struct {
		ID             AssetID
		Description    string
		Owner          string
		CapitalValue   float64
		MonthlyValue   float64
		PeriodValue    float64
		GrowthRate     GrowthRate
		DepletionYears float64
	}

	// TaxDetails breaks annual tax down into the four rate bands.
	// Bands missing at the source are zero, not absent.
	TaxDetails struct {
		TaxFreeAllowance     float64
		BasicRateAmount      float64
		HigherRateAmount     float64
		AdditionalRateAmount float64
	}

	// OwnerIncome is one person's annual income summary. The slice order in
	// Snapshot.IncomeSummary is the order the source produced the owners in.
	OwnerIncome struct {
		Owner         string
		TaxableIncome float64
		Tax           float64
		NetIncome     float64
		TaxDetails    *TaxDetails
	}

	// CashFlow is one row of the detailed income/expense table.
	CashFlow struct {
		Description  string
		Owner        string
		Type         FlowType
		MonthlyValue float64
	}

	// AssetProjection is one asset's projected value series, aligned with
	// ProjectionSet.Years by position.
	AssetProjection struct {
		ID     AssetID
		Name   string
		Values []float64
	}

	// ProjectionSet carries the pre-computed multi-year projections. The
	// household total series is kept apart from the per-asset series so the
	// sentinel never mixes with real assets.
	ProjectionSet struct {
		Years  []int
		Assets []AssetProjection
		Total  []float64
	}

	// Snapshot is the externally computed financial picture a chat session is
	// opened over. Optional sections are empty slices or nil pointers; this
	// module never computes any of the figures itself.
	Snapshot struct {
		TotalNetIncome float64
		TotalExpenses  float64
		IncomeSummary  []OwnerIncome
		Assets         []Asset
		CashFlows      []CashFlow
		Projections    *ProjectionSet
	}
)

var (
	ErrNotFinite         = errors.New("monetary value is not finite")
	ErrYearsMismatch     = errors.New("projection series length does not match years")
	ErrDuplicateAssetID  = errors.New("duplicate asset id")
	ErrEmptyOwner        = errors.New("empty owner name")
	ErrInvalidFlowType   = errors.New("invalid cash flow type")
	ErrMissingProjection = errors.New("projection references unknown asset")
)

// NewAssetID derives the legacy "Description (Owner)" composite identifier for
// sources that do not assign explicit asset ids.
func NewAssetID(description, owner string) AssetID {
	return AssetID(fmt.Sprintf("%s (%s)", description, owner))
}

// IncomeGenerating reports whether the asset produces periodic income.
func (a Asset) IncomeGenerating() bool {
	return a.PeriodValue > 0
}

// AnnualIncome is the annualised monthly income of the asset.
func (a Asset) AnnualIncome() float64 {
	return a.MonthlyValue * 12
}

// DisplayName is the human-readable "Description (Owner)" label.
func (a Asset) DisplayName() string {
	return fmt.Sprintf("%s (%s)", a.Description, a.Owner)
}

// Percent resolves the growth rate to a fraction (0.045 for 4.5%). Textual
// rates are stripped of a trailing % and comma separators, parsed, and divided
// by 100; numeric rates are taken as already fractional. The second return is
// false when the text cannot be parsed.
func (g GrowthRate) Percent() (float64, bool) {
	if g.Text == "" {
		return g.Rate, true
	}
	s := strings.ReplaceAll(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(g.Text), "%")), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}

// Display returns the rate as loaded from the source, for contexts that show
// the raw value rather than a normalised percentage.
func (g GrowthRate) Display() string {
	if g.Text != "" {
		return g.Text
	}
	return strconv.FormatFloat(g.Rate, 'g', -1, 64)
}

// NetCashFlow is annual income minus annual expenses.
func (s Snapshot) NetCashFlow() float64 {
	return s.TotalNetIncome - s.TotalExpenses
}

// AssetByID looks an asset up by identifier.
func (s Snapshot) AssetByID(id AssetID) (Asset, bool) {
	for _, a := range s.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// Validate checks the structural invariants a well-formed snapshot must hold.
// Formatting never fails, so callers are expected to validate loaded data once
// at the source boundary.
func (s Snapshot) Validate() error {
	for name, v := range map[string]float64{
		"total_net_income": s.TotalNetIncome,
		"total_expenses":   s.TotalExpenses,
	} {
		if !isFinite(v) {
			return fmt.Errorf("%s: %w", name, ErrNotFinite)
		}
	}

	for _, oi := range s.IncomeSummary {
		if strings.TrimSpace(oi.Owner) == "" {
			return ErrEmptyOwner
		}
		for _, v := range []float64{oi.TaxableIncome, oi.Tax, oi.NetIncome} {
			if !isFinite(v) {
				return fmt.Errorf("income summary for %s: %w", oi.Owner, ErrNotFinite)
			}
		}
	}

	seen := map[AssetID]bool{}
	for _, a := range s.Assets {
		if seen[a.ID] {
			return fmt.Errorf("%s: %w", a.ID, ErrDuplicateAssetID)
		}
		seen[a.ID] = true
		for _, v := range []float64{a.CapitalValue, a.MonthlyValue, a.PeriodValue} {
			if !isFinite(v) {
				return fmt.Errorf("asset %s: %w", a.ID, ErrNotFinite)
			}
		}
	}

	for _, cf := range s.CashFlows {
		if cf.Type != FlowIncome && cf.Type != FlowExpense {
			return fmt.Errorf("%q: %w", cf.Type, ErrInvalidFlowType)
		}
		if !isFinite(cf.MonthlyValue) {
			return fmt.Errorf("cash flow %s: %w", cf.Description, ErrNotFinite)
		}
	}

	if p := s.Projections; p != nil {
		for _, ap := range p.Assets {
			if len(ap.Values) != len(p.Years) {
				return fmt.Errorf("projection %s: %w", ap.ID, ErrYearsMismatch)
			}
		}
		if len(p.Total) > 0 && len(p.Total) != len(p.Years) {
			return fmt.Errorf("total series: %w", ErrYearsMismatch)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
