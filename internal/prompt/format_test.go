package prompt

import (
	"strings"
	"testing"

	"finchat/internal/core"
)

func basicSnapshot() core.Snapshot {
	return core.Snapshot{
		TotalNetIncome: 5000,
		TotalExpenses:  3000,
		IncomeSummary: []core.OwnerIncome{
			{Owner: "Alice", TaxableIncome: 6000, Tax: 1000, NetIncome: 5000},
		},
	}
}

func TestFormatSnapshot_BasicScenario(t *testing.T) {
	got := FormatSnapshot(basicSnapshot())

	wantLines := []string{
		"Annual Net Cash Flow: £2,000.00",
		"## Individual Income Details",
		"### Alice",
		"  - Annual Taxable Income: £6,000.00",
		"  - Annual Tax: £1,000.00",
		"  - Annual Net Income: £5,000.00",
		"Annual Surplus/Deficit: £2,000.00",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line+"\n") && !strings.HasSuffix(got, line) {
			t.Errorf("output missing line %q\noutput:\n%s", line, got)
		}
	}

	if idx := strings.Index(got, "## Individual Income Details"); idx == -1 ||
		!strings.Contains(got[idx:], "### Alice") {
		t.Error("### Alice subsection must follow ## Individual Income Details")
	}
}

func TestFormatSnapshot_Deterministic(t *testing.T) {
	s := core.Snapshot{
		TotalNetIncome: 81234.5,
		TotalExpenses:  40000.25,
		IncomeSummary: []core.OwnerIncome{
			{Owner: "Alice", TaxableIncome: 60000, Tax: 11000, NetIncome: 49000,
				TaxDetails: &core.TaxDetails{TaxFreeAllowance: 12570, BasicRateAmount: 7540}},
			{Owner: "Bob", TaxableIncome: 30000, Tax: 3486, NetIncome: 26514},
		},
		Assets: []core.Asset{
			{ID: "ISA (Alice)", Description: "ISA", Owner: "Alice", CapitalValue: 85000,
				MonthlyValue: 250, PeriodValue: 250, GrowthRate: core.GrowthRate{Text: "4.5%"}, DepletionYears: 18.5},
			{ID: "House (Joint)", Description: "House", Owner: "Joint", CapitalValue: 450000,
				GrowthRate: core.GrowthRate{Rate: 0.03}},
		},
		Projections: &core.ProjectionSet{
			Years: []int{0, 1, 2, 3, 4, 5},
			Assets: []core.AssetProjection{
				{ID: "ISA (Alice)", Name: "ISA (Alice)", Values: []float64{85000, 85825, 86600, 87300, 87900, 88400}},
			},
		},
	}

	first := FormatSnapshot(s)
	for i := 0; i < 5; i++ {
		if FormatSnapshot(s) != first {
			t.Fatal("FormatSnapshot is not deterministic for identical input")
		}
	}
}

func TestFormatSnapshot_MonthlySurplus(t *testing.T) {
	s := core.Snapshot{TotalNetIncome: 1200, TotalExpenses: 0}
	got := FormatSnapshot(s)
	if !strings.Contains(got, "Monthly Surplus/Deficit: £100.00") {
		t.Errorf("monthly surplus should be annual/12, output:\n%s", got)
	}
}

func TestFormatSnapshot_OwnerOrderPreserved(t *testing.T) {
	s := basicSnapshot()
	s.IncomeSummary = []core.OwnerIncome{
		{Owner: "Zoe"}, {Owner: "Alice"}, {Owner: "Bob"},
	}
	got := FormatSnapshot(s)
	zoe := strings.Index(got, "### Zoe")
	alice := strings.Index(got, "### Alice")
	bob := strings.Index(got, "### Bob")
	if zoe == -1 || alice == -1 || bob == -1 || !(zoe < alice && alice < bob) {
		t.Errorf("owner sections out of order: zoe=%d alice=%d bob=%d", zoe, alice, bob)
	}
}

func TestFormatSnapshot_TaxBreakdownDefaultsToZero(t *testing.T) {
	s := basicSnapshot()
	s.IncomeSummary[0].TaxDetails = &core.TaxDetails{TaxFreeAllowance: 12570}
	got := FormatSnapshot(s)

	for _, line := range []string{
		"    * Tax-free allowance: £12,570.00",
		"    * Basic rate amount: £0.00",
		"    * Higher rate amount: £0.00",
		"    * Additional rate amount: £0.00",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("output missing %q", line)
		}
	}
}

func TestFormatSnapshot_NoTaxBreakdownWhenAbsent(t *testing.T) {
	got := FormatSnapshot(basicSnapshot())
	if strings.Contains(got, "Tax Breakdown") {
		t.Error("tax breakdown rendered for owner without tax details")
	}
}

func TestFormatSnapshot_AssetPartitioning(t *testing.T) {
	s := basicSnapshot()
	s.Assets = []core.Asset{
		{ID: "Pension (Bob)", Description: "Pension", Owner: "Bob", CapitalValue: 200000,
			MonthlyValue: 800, PeriodValue: 800, GrowthRate: core.GrowthRate{Rate: 0.05}, DepletionYears: 24.75},
		{ID: "Car (Bob)", Description: "Car", Owner: "Bob", CapitalValue: 9000, PeriodValue: 0},
	}
	got := FormatSnapshot(s)

	incomeIdx := strings.Index(got, "### Income-Generating Assets")
	nonIncomeIdx := strings.Index(got, "### Non-Income Assets")
	if incomeIdx == -1 || nonIncomeIdx == -1 {
		t.Fatalf("missing asset sections in output:\n%s", got)
	}

	incomeSection := got[incomeIdx:nonIncomeIdx]
	nonIncomeSection := got[nonIncomeIdx:]

	if !strings.Contains(incomeSection, "Pension (Bob):") {
		t.Error("income-generating asset missing from its section")
	}
	if strings.Contains(incomeSection, "Car (Bob):") {
		t.Error("zero period-value asset leaked into income-generating section")
	}
	if !strings.Contains(nonIncomeSection, "Car (Bob):") {
		t.Error("non-income asset missing from its section")
	}
	if strings.Contains(nonIncomeSection, "Pension (Bob):") {
		t.Error("income-generating asset leaked into non-income section")
	}

	for _, line := range []string{
		"  - Monthly Income Generated: £800.00",
		"  - Annual Income Generated: £9,600.00",
		"  - Years until Depletion: 24.75",
	} {
		if !strings.Contains(incomeSection, line) {
			t.Errorf("income-generating section missing %q", line)
		}
	}
	if strings.Contains(nonIncomeSection, "Monthly Income Generated") {
		t.Error("non-income section must list current value only")
	}
}

func TestFormatSnapshot_AssetsSectionSkippedWhenEmpty(t *testing.T) {
	got := FormatSnapshot(basicSnapshot())
	if strings.Contains(got, "## Assets Information") {
		t.Error("assets section rendered for snapshot without assets")
	}
	if strings.Contains(got, "## Asset Projections") {
		t.Error("projections section rendered for snapshot without projections")
	}
}

func TestFormatSnapshot_CashFlows(t *testing.T) {
	s := basicSnapshot()
	s.CashFlows = []core.CashFlow{
		{Description: "Salary", Owner: "Alice", Type: core.FlowIncome, MonthlyValue: 4200},
		{Description: "Mortgage", Owner: "Joint", Type: core.FlowExpense, MonthlyValue: 1500.5},
	}
	got := FormatSnapshot(s)

	if !strings.Contains(got, "## Detailed Income Sources\nSalary (Alice): £4,200.00/month") {
		t.Errorf("income source line malformed:\n%s", got)
	}
	if !strings.Contains(got, "## Detailed Expenses\nMortgage (Joint): £1,500.50/month") {
		t.Errorf("expense line malformed:\n%s", got)
	}
}

func TestFormatSnapshot_ProjectionCheckpoints(t *testing.T) {
	values := make([]float64, 26)
	years := make([]int, 26)
	for i := range values {
		years[i] = i
		values[i] = float64(100000 + i*1000)
	}

	s := basicSnapshot()
	s.Assets = []core.Asset{
		{ID: "Pension (Bob)", Description: "Pension", Owner: "Bob",
			PeriodValue: 1, MonthlyValue: 1, GrowthRate: core.GrowthRate{Text: "4.5%"}},
	}
	s.Projections = &core.ProjectionSet{
		Years: years,
		Assets: []core.AssetProjection{
			{ID: "Pension (Bob)", Name: "Pension (Bob)", Values: values},
		},
	}

	got := FormatSnapshot(s)
	want := "| Pension (Bob) | £100,000 | 4.5% | £105,000 | £110,000 | £115,000 | £120,000 | £125,000 |"
	if !strings.Contains(got, want) {
		t.Errorf("summary row mismatch\nwant substring: %s\ngot:\n%s", want, got)
	}
}

func TestFormatSnapshot_ProjectionShortHorizonRendersNA(t *testing.T) {
	s := basicSnapshot()
	s.Projections = &core.ProjectionSet{
		Years: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		Assets: []core.AssetProjection{
			{ID: "Fund (Alice)", Name: "Fund (Alice)", Values: []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}},
		},
	}

	got := FormatSnapshot(s)
	// Years 10, 15, 20, 25 are past the horizon; checkpoint 0 and 5 resolve.
	want := "| Fund (Alice) | £10 | Varies | £15 | N/A | N/A | N/A | N/A |"
	if !strings.Contains(got, want) {
		t.Errorf("short-horizon row mismatch\nwant substring: %s\ngot:\n%s", want, got)
	}
}

func TestFormatSnapshot_ReferenceTableCappedAt26Rows(t *testing.T) {
	values := make([]float64, 40)
	years := make([]int, 40)
	for i := range values {
		years[i] = i
		values[i] = float64(i)
	}

	s := basicSnapshot()
	s.Projections = &core.ProjectionSet{
		Years:  years,
		Assets: []core.AssetProjection{{ID: "x", Name: "Fund", Values: values}},
	}

	got := FormatSnapshot(s)
	if !strings.Contains(got, "| 25 | 25 |") {
		t.Error("reference table missing year 25")
	}
	if strings.Contains(got, "| 26 | 26 |") {
		t.Error("reference table must stop at year 25")
	}
}

func TestFormatSnapshot_GrowthRateDisplay(t *testing.T) {
	tests := []struct {
		name string
		rate core.GrowthRate
		want string
	}{
		{"textual percent", core.GrowthRate{Text: "4.5%"}, "| 4.5% |"},
		{"numeric fraction", core.GrowthRate{Rate: 0.03}, "| 3.0% |"},
		{"unparseable text", core.GrowthRate{Text: "Varies"}, "| Varies |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := basicSnapshot()
			s.Assets = []core.Asset{{ID: "A (B)", Description: "A", Owner: "B", GrowthRate: tt.rate}}
			s.Projections = &core.ProjectionSet{
				Years:  []int{0},
				Assets: []core.AssetProjection{{ID: "A (B)", Name: "A (B)", Values: []float64{1}}},
			}
			got := FormatSnapshot(s)
			if !strings.Contains(got, tt.want) {
				t.Errorf("growth cell missing %q in:\n%s", tt.want, got)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	ctx := FormatSnapshot(basicSnapshot())
	got := SystemPrompt(ctx)

	if !strings.Contains(got, ctx) {
		t.Error("system prompt must embed the rendered context")
	}
	if !strings.Contains(got, "DO NOT CALCULATE or ESTIMATE asset values yourself") {
		t.Error("system prompt must carry the anti-interpolation instructions")
	}
	if !strings.HasPrefix(got, "You are a helpful financial assistant") {
		t.Error("system prompt must start with the fixed preamble")
	}
}
