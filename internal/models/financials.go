package models

// Quote is the subset of the provider's quote payload the scan reads.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercentage float64 `json:"changePercentage"`
	MarketCap        float64 `json:"marketCap"`
	Volume           float64 `json:"volume"`
	PreviousClose    float64 `json:"previousClose"`
	YearHigh         float64 `json:"yearHigh"`
	YearLow          float64 `json:"yearLow"`
}

// Profile is the subset of the provider's company profile payload.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MktCap      float64 `json:"mktCap"`
	Description string  `json:"description"`
}

// KeyMetrics is the subset of the provider's TTM key-metrics payload.
type KeyMetrics struct {
	Symbol                string  `json:"symbol"`
	EnterpriseValue       float64 `json:"enterpriseValue"`
	PERatio               float64 `json:"peRatio"`
	RevenuePerShare       float64 `json:"revenuePerShare"`
	FreeCashFlowPerShare  float64 `json:"freeCashFlowPerShare"`
	CurrentRatio          float64 `json:"currentRatio"`
	DebtToEquity          float64 `json:"debtToEquity"`
	ReturnOnEquity        float64 `json:"returnOnEquity"`
	ReturnOnTangibleAsset float64 `json:"returnOnTangibleAssets"`
}

// IncomeStatement is the subset of the provider's income-statement payload.
type IncomeStatement struct {
	Symbol           string  `json:"symbol"`
	Date             string  `json:"date"`
	Revenue          float64 `json:"revenue"`
	GrossProfit      float64 `json:"grossProfit"`
	GrossProfitRatio float64 `json:"grossProfitRatio"`
	OperatingIncome  float64 `json:"operatingIncome"`
	NetIncome        float64 `json:"netIncome"`
	EBITDA           float64 `json:"ebitda"`
}

// BalanceSheet is the subset of the provider's balance-sheet payload.
type BalanceSheet struct {
	Symbol                   string  `json:"symbol"`
	Date                     string  `json:"date"`
	TotalDebt                float64 `json:"totalDebt"`
	CashAndCashEquivalents   float64 `json:"cashAndCashEquivalents"`
	TotalStockholdersEquity  float64 `json:"totalStockholdersEquity"`
	TotalCurrentLiabilities  float64 `json:"totalCurrentLiabilities"`
	TotalCurrentAssets       float64 `json:"totalCurrentAssets"`
	ShortTermInvestments     float64 `json:"shortTermInvestments"`
	NetReceivables           float64 `json:"netReceivables"`
	PropertyPlantEquipmentNe float64 `json:"propertyPlantEquipmentNet"`
}

// CompanyFinancials is the per-run financial snapshot for one company.
// Any field may be nil/empty when the upstream call failed or returned no
// data; absence never aborts a batch.
type CompanyFinancials struct {
	Ticker          string           `json:"ticker"`
	CompanyID       string           `json:"companyId"`
	Quote           *Quote           `json:"quote"`
	KeyMetrics      *KeyMetrics      `json:"keyMetrics"`
	IncomeStatement *IncomeStatement `json:"incomeStatement"`
	Transcript      string           `json:"transcript,omitempty"`
}
