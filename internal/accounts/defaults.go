package accounts

import "github.com/cleared-dev/cleared-gl/internal/model"

// SeedAccount is one row of a default chart; IDs are assigned when it is loaded.
type SeedAccount struct {
	Code     string
	Name     string
	RootType model.RootType
}

// Chart names accepted by DefaultChart.
const (
	ChartFreightForwarder = "freight_forwarder"
	ChartMinimal          = "minimal"
)

// DefaultChart returns the default chart of accounts by name.
// Unknown names fall back to the freight forwarder chart.
func DefaultChart(chart string) []SeedAccount {
	switch chart {
	case ChartMinimal:
		return minimalChart()
	case ChartFreightForwarder:
		return freightForwarderChart()
	default:
		return freightForwarderChart()
	}
}

func minimalChart() []SeedAccount {
	return []SeedAccount{
		{Code: "1101", Name: "Cash", RootType: model.RootAsset},
		{Code: "1201", Name: "Accounts Receivable", RootType: model.RootAsset},
		{Code: "3101", Name: "Payable", RootType: model.RootLiability},
		{Code: "4101", Name: "Capital", RootType: model.RootEquity},
		{Code: "5101", Name: "Freight Revenue", RootType: model.RootRevenue},
		{Code: "6101", Name: "Operating Expenses", RootType: model.RootExpense},
	}
}

func freightForwarderChart() []SeedAccount {
	return []SeedAccount{
		// 1 Assets
		{Code: "1", Name: "Assets", RootType: model.RootAsset},
		{Code: "1.1", Name: "Current Assets", RootType: model.RootAsset},
		{Code: "1.1.1", Name: "Cash and Equivalents", RootType: model.RootAsset},
		{Code: "1.1.1.1", Name: "Petty Cash", RootType: model.RootAsset},
		{Code: "1.1.1.2", Name: "Operating Bank Account", RootType: model.RootAsset},
		{Code: "1.1.1.3", Name: "Foreign Currency Bank Account", RootType: model.RootAsset},
		{Code: "1.1.2", Name: "Receivables", RootType: model.RootAsset},
		{Code: "1.1.2.1", Name: "Customer Receivables", RootType: model.RootAsset},
		{Code: "1.1.2.2", Name: "Agent Receivables", RootType: model.RootAsset},
		{Code: "1.1.3", Name: "Prepaid Freight and Duties", RootType: model.RootAsset},
		{Code: "1.2", Name: "Non-Current Assets", RootType: model.RootAsset},
		{Code: "1.2.1", Name: "Vehicles and Handling Equipment", RootType: model.RootAsset},
		{Code: "1.2.2", Name: "Containers", RootType: model.RootAsset},

		// 2 Liabilities
		{Code: "2", Name: "Liabilities", RootType: model.RootLiability},
		{Code: "2.1", Name: "Current Liabilities", RootType: model.RootLiability},
		{Code: "2.1.1", Name: "Carrier Payables", RootType: model.RootLiability},
		{Code: "2.1.2", Name: "Agent Payables", RootType: model.RootLiability},
		{Code: "2.1.3", Name: "Customs Duties Payable", RootType: model.RootLiability},
		{Code: "2.1.4", Name: "Customer Advances", RootType: model.RootLiability},
		{Code: "2.2", Name: "Long-Term Loans", RootType: model.RootLiability},

		// 3 Equity
		{Code: "3", Name: "Equity", RootType: model.RootEquity},
		{Code: "3.1", Name: "Owner's Capital", RootType: model.RootEquity},
		{Code: "3.2", Name: "Retained Earnings", RootType: model.RootEquity},

		// 4 Revenue
		{Code: "4", Name: "Revenue", RootType: model.RootRevenue},
		{Code: "4.1", Name: "Ocean Freight Revenue", RootType: model.RootRevenue},
		{Code: "4.2", Name: "Air Freight Revenue", RootType: model.RootRevenue},
		{Code: "4.3", Name: "Customs Clearance Fees", RootType: model.RootRevenue},
		{Code: "4.4", Name: "Warehousing Revenue", RootType: model.RootRevenue},

		// 5 Expenses
		{Code: "5", Name: "Expenses", RootType: model.RootExpense},
		{Code: "5.1", Name: "Carrier Freight Costs", RootType: model.RootExpense},
		{Code: "5.2", Name: "Port and Terminal Charges", RootType: model.RootExpense},
		{Code: "5.3", Name: "Trucking and Haulage", RootType: model.RootExpense},
		{Code: "5.4", Name: "Salaries and Wages", RootType: model.RootExpense},
		{Code: "5.5", Name: "Office and Administration", RootType: model.RootExpense},
	}
}
