package watchlist

// DefaultUniverse is the built-in US large-cap scan universe used when the
// configuration does not supply one.
var DefaultUniverse = []string{
	// Index ETFs
	"SPY", "QQQ", "DIA", "IWM",
	// Mega-cap tech
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "AVGO",
	"ORCL", "CRM", "ADBE", "AMD", "INTC", "QCOM", "TXN", "MU",
	"AMAT", "LRCX", "KLAC", "NOW", "INTU", "IBM", "CSCO", "ACN",
	// Communication and media
	"NFLX", "DIS", "CMCSA", "T", "VZ", "TMUS",
	// Financials
	"JPM", "BAC", "WFC", "GS", "MS", "C", "BLK", "SCHW",
	"AXP", "V", "MA", "PYPL", "COF",
	// Healthcare
	"UNH", "JNJ", "LLY", "PFE", "MRK", "ABBV", "TMO", "ABT",
	"DHR", "BMY", "AMGN", "GILD", "CVS", "MDT", "ISRG",
	// Consumer
	"WMT", "COST", "HD", "LOW", "TGT", "PG", "KO", "PEP",
	"MCD", "SBUX", "NKE", "CMG", "BKNG",
	// Industrials and energy
	"CAT", "DE", "BA", "HON", "GE", "UPS", "UNP", "LMT", "RTX",
	"XOM", "CVX", "COP", "SLB", "EOG",
	// Misc growth
	"UBER", "ABNB", "SHOP", "SQ", "COIN", "PLTR", "SNOW", "CRWD",
	"PANW", "ZS", "DDOG", "NET",
}
