// Package prompt renders a financial snapshot into the text context supplied
// to the completion endpoint as the system instruction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"finchat/internal/core"
)

// checkpointYears are the fixed reporting years of the projection summary
// table. They index into the projection series by position.
var checkpointYears = [...]int{0, 5, 10, 15, 20, 25}

// maxReferenceYears caps the per-asset reference tables at years 0-25.
const maxReferenceYears = 26

// FormatSnapshot renders the snapshot as a newline-joined markdown block.
// It is a total function: identical input yields byte-identical output, and
// absent optional sections are skipped rather than rendered empty.
func FormatSnapshot(s core.Snapshot) string {
	lines := make([]string, 0, 64)

	lines = append(lines,
		"## Financial Summary",
		"Annual Household Income: £"+money(s.TotalNetIncome),
		"Annual Household Expenses: £"+money(s.TotalExpenses),
		"Annual Net Cash Flow: £"+money(s.NetCashFlow()),
	)

	lines = append(lines, "", "## Individual Income Details")
	for _, oi := range s.IncomeSummary {
		lines = append(lines,
			"",
			"### "+oi.Owner,
			"  - Annual Taxable Income: £"+money(oi.TaxableIncome),
			"  - Annual Tax: £"+money(oi.Tax),
			"  - Annual Net Income: £"+money(oi.NetIncome),
		)
		if td := oi.TaxDetails; td != nil {
			lines = append(lines,
				"  - Tax Breakdown:",
				"    * Tax-free allowance: £"+money(td.TaxFreeAllowance),
				"    * Basic rate amount: £"+money(td.BasicRateAmount),
				"    * Higher rate amount: £"+money(td.HigherRateAmount),
				"    * Additional rate amount: £"+money(td.AdditionalRateAmount),
			)
		}
	}

	surplus := s.NetCashFlow()
	lines = append(lines,
		"",
		"## Household Summary",
		"Total Net Income: £"+money(s.TotalNetIncome),
		"Total Annual Expenses: £"+money(s.TotalExpenses),
		"Annual Surplus/Deficit: £"+money(surplus),
		"Monthly Surplus/Deficit: £"+money(surplus/12),
	)

	lines = appendAssets(lines, s.Assets)
	lines = appendCashFlows(lines, s.CashFlows)
	lines = appendProjections(lines, s)

	return strings.Join(lines, "\n")
}

func appendAssets(lines []string, assets []core.Asset) []string {
	if len(assets) == 0 {
		return lines
	}
	lines = append(lines, "", "## Assets Information")

	var income, other []core.Asset
	for _, a := range assets {
		if a.IncomeGenerating() {
			income = append(income, a)
		} else {
			other = append(other, a)
		}
	}

	if len(income) > 0 {
		lines = append(lines, "", "### Income-Generating Assets")
		for _, a := range income {
			lines = append(lines,
				a.DisplayName()+":",
				"  - Current Value: £"+money(a.CapitalValue),
				"  - Monthly Income Generated: £"+money(a.MonthlyValue),
				"  - Annual Income Generated: £"+money(a.AnnualIncome()),
				"  - Growth Rate: "+a.GrowthRate.Display(),
				fmt.Sprintf("  - Years until Depletion: %.2f", a.DepletionYears),
			)
		}
	}

	if len(other) > 0 {
		lines = append(lines, "", "### Non-Income Assets")
		for _, a := range other {
			lines = append(lines,
				a.DisplayName()+":",
				"  - Current Value: £"+money(a.CapitalValue),
			)
		}
	}

	return lines
}

func appendCashFlows(lines []string, flows []core.CashFlow) []string {
	if len(flows) == 0 {
		return lines
	}

	byType := func(t core.FlowType) []core.CashFlow {
		var out []core.CashFlow
		for _, cf := range flows {
			if cf.Type == t {
				out = append(out, cf)
			}
		}
		return out
	}

	if incomes := byType(core.FlowIncome); len(incomes) > 0 {
		lines = append(lines, "", "## Detailed Income Sources")
		for _, cf := range incomes {
			lines = append(lines, fmt.Sprintf("%s (%s): £%s/month", cf.Description, cf.Owner, money(cf.MonthlyValue)))
		}
	}
	if expenses := byType(core.FlowExpense); len(expenses) > 0 {
		lines = append(lines, "", "## Detailed Expenses")
		for _, cf := range expenses {
			lines = append(lines, fmt.Sprintf("%s (%s): £%s/month", cf.Description, cf.Owner, money(cf.MonthlyValue)))
		}
	}

	return lines
}

func appendProjections(lines []string, s core.Snapshot) []string {
	p := s.Projections
	if p == nil {
		return lines
	}

	lines = append(lines,
		"",
		"## Asset Projections (Values in £)",
		"",
		"### Summary Table (Key Years)",
		"",
		"| Asset | Current | Growth Rate | Year 5 | Year 10 | Year 15 | Year 20 | Year 25 |",
		"| ----- | ------- | ----------- | ------ | ------- | ------- | ------- | ------- |",
	)

	for _, ap := range p.Assets {
		cells := make([]string, len(checkpointYears))
		for i, year := range checkpointYears {
			if year < len(ap.Values) {
				cells[i] = "£" + wholeNumber(ap.Values[year])
			} else {
				cells[i] = "N/A"
			}
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |",
			ap.Name, cells[0], growthDisplay(s, ap.ID), cells[1], cells[2], cells[3], cells[4], cells[5]))
	}

	lines = append(lines,
		"",
		"These projections account for both asset growth and withdrawals over time.",
		"The calculations are performed annually, compounding interest and subtracting withdrawals.",
		"",
		"### REFERENCE: Precise Year-by-Year Asset Values",
		"**IMPORTANT: When asked about values for specific years, use the EXACT values below!**",
	)

	for _, ap := range p.Assets {
		lines = append(lines,
			"",
			"#### "+ap.Name,
			"| Year | Value (£) |",
			"| ---- | --------- |",
		)
		for year := 0; year < len(ap.Values) && year < maxReferenceYears; year++ {
			lines = append(lines, fmt.Sprintf("| %d | %s |", year, wholeNumber(ap.Values[year])))
		}
	}

	return lines
}

// growthDisplay resolves the growth rate shown in the summary table by asset
// id, rendered as a percentage with one decimal place. Assets without a
// resolvable rate show "Varies".
func growthDisplay(s core.Snapshot, id core.AssetID) string {
	a, ok := s.AssetByID(id)
	if !ok {
		return "Varies"
	}
	pct, ok := a.GrowthRate.Percent()
	if !ok {
		return "Varies"
	}
	return fmt.Sprintf("%.1f%%", pct*100)
}

// money renders a currency amount with exactly two decimal places and
// thousands separators.
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// wholeNumber renders a projection value with thousands separators and no
// decimal places.
func wholeNumber(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}
