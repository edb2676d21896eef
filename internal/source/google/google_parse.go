package google

import (
	"fmt"
	"strconv"
	"strings"

	"finchat/internal/core"
)

// totalSeriesHeader is the projections column carrying the household total
// rather than a single asset.
const totalSeriesHeader = "Total Assets"

// parseSummary scans label/value pairs for the two household totals.
func parseSummary(values [][]interface{}) (totalNetIncome, totalExpenses float64) {
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) < 2 {
			continue
		}
		v, ok := parseAmount(cols[1])
		if !ok {
			continue
		}
		switch strings.ToLower(cols[0]) {
		case "total net income":
			totalNetIncome = v
		case "total expenses":
			totalExpenses = v
		}
	}
	return totalNetIncome, totalExpenses
}

// parseIncomeSummary expects columns Owner, Taxable Income, Tax, Net Income,
// then optionally the four tax band amounts. Row order is preserved.
func parseIncomeSummary(values [][]interface{}) []core.OwnerIncome {
	var out []core.OwnerIncome
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) < 4 || cols[0] == "" {
			continue
		}
		taxable, ok := parseAmount(cols[1])
		if !ok {
			continue // header or junk row
		}
		tax, _ := parseAmount(safeGet(cols, 2))
		net, _ := parseAmount(safeGet(cols, 3))

		income := core.OwnerIncome{
			Owner:         cols[0],
			TaxableIncome: taxable,
			Tax:           tax,
			NetIncome:     net,
		}
		if len(cols) > 4 {
			details := core.TaxDetails{}
			details.TaxFreeAllowance, _ = parseAmount(safeGet(cols, 4))
			details.BasicRateAmount, _ = parseAmount(safeGet(cols, 5))
			details.HigherRateAmount, _ = parseAmount(safeGet(cols, 6))
			details.AdditionalRateAmount, _ = parseAmount(safeGet(cols, 7))
			income.TaxDetails = &details
		}
		out = append(out, income)
	}
	return out
}

// parseAssets expects columns Description, Owner, Capital Value, Monthly
// Value, Period Value, Growth Rate, Depletion Years.
func parseAssets(values [][]interface{}) []core.Asset {
	var out []core.Asset
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) < 3 || cols[0] == "" {
			continue
		}
		capital, ok := parseAmount(cols[2])
		if !ok {
			continue // header or junk row
		}
		monthly, _ := parseAmount(safeGet(cols, 3))
		period, _ := parseAmount(safeGet(cols, 4))
		depletion, _ := parseAmount(safeGet(cols, 6))

		out = append(out, core.Asset{
			ID:             core.NewAssetID(cols[0], safeGet(cols, 1)),
			Description:    cols[0],
			Owner:          safeGet(cols, 1),
			CapitalValue:   capital,
			MonthlyValue:   monthly,
			PeriodValue:    period,
			GrowthRate:     core.GrowthRate{Text: safeGet(cols, 5)},
			DepletionYears: depletion,
		})
	}
	return out
}

// parseCashFlows expects columns Description, Owner, Type, Monthly Value.
func parseCashFlows(values [][]interface{}) []core.CashFlow {
	var out []core.CashFlow
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) < 4 || cols[0] == "" {
			continue
		}
		flowType := core.FlowType(cols[2])
		if flowType != core.FlowIncome && flowType != core.FlowExpense {
			continue // header or junk row
		}
		monthly, ok := parseAmount(cols[3])
		if !ok {
			continue
		}
		out = append(out, core.CashFlow{
			Description:  cols[0],
			Owner:        safeGet(cols, 1),
			Type:         flowType,
			MonthlyValue: monthly,
		})
	}
	return out
}

// parseProjections expects a header row of Year followed by one column per
// series, then one row per projected year. A column named "Total Assets"
// becomes the household total rather than an asset series.
func parseProjections(values [][]interface{}) *core.ProjectionSet {
	if len(values) < 2 {
		return nil
	}
	headers := toStrings(values[0])
	if len(headers) < 2 {
		return nil
	}

	set := &core.ProjectionSet{}
	series := make([][]float64, len(headers)-1)

	for _, row := range values[1:] {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		year, err := strconv.Atoi(cols[0])
		if err != nil {
			continue
		}
		set.Years = append(set.Years, year)
		for i := range series {
			v, _ := parseAmount(safeGet(cols, i+1))
			series[i] = append(series[i], v)
		}
	}
	if len(set.Years) == 0 {
		return nil
	}

	for i, name := range headers[1:] {
		if strings.EqualFold(name, totalSeriesHeader) {
			set.Total = series[i]
			continue
		}
		set.Assets = append(set.Assets, core.AssetProjection{
			ID:     core.AssetID(name),
			Name:   name,
			Values: series[i],
		})
	}
	return set
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		if f, ok := v.(float64); ok {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmount parses a sheet cell as a monetary amount, tolerating currency
// symbols and thousands separators.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
