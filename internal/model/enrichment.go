package model

import "time"

// Enrichment is a point-in-time risk and liquidity snapshot of an asset,
// attached to a trade record when the upstream lookup succeeds. Every
// field has a usable zero value; only the authorities are pointers since
// "absent" carries meaning there.
type Enrichment struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	AgeSeconds  int64  `json:"age_seconds"`
	Creator     string `json:"creator"`
	CreatedTx   string `json:"created_tx"`
	HasMetadata bool   `json:"has_metadata"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`

	MarketCap   float64 `json:"market_cap"`
	Liquidity   float64 `json:"liquidity"`
	PriceUSD    float64 `json:"price_usd"`
	PriceQuote  float64 `json:"price_quote"`
	TokenSupply float64 `json:"token_supply"`

	Holders      int64   `json:"holders"`
	TotalTxns    int64   `json:"total_txns"`
	Buys         int64   `json:"buys"`
	Sells        int64   `json:"sells"`
	BuySellRatio float64 `json:"buy_sell_ratio"`

	PoolBuys      int64   `json:"pool_buys"`
	PoolSells     int64   `json:"pool_sells"`
	PoolTotalTxns int64   `json:"pool_total_txns"`
	PoolVolume    float64 `json:"pool_volume"`
	PoolVolume24h float64 `json:"pool_volume_24h"`

	PriceChange1m  float64 `json:"price_change_1m"`
	PriceChange5m  float64 `json:"price_change_5m"`
	PriceChange15m float64 `json:"price_change_15m"`
	PriceChange1h  float64 `json:"price_change_1h"`

	LPBurn          float64 `json:"lp_burn"`
	FreezeAuthority *string `json:"freeze_authority"`
	MintAuthority   *string `json:"mint_authority"`

	Top10Pct        float64 `json:"top10_pct"`
	DevPct          float64 `json:"dev_pct"`
	DevAmount       float64 `json:"dev_amount"`
	RiskScore       float64 `json:"risk_score"`
	Rugged          bool    `json:"rugged"`
	JupiterVerified bool    `json:"jupiter_verified"`
	SniperCount     int64   `json:"sniper_count"`
	SniperPct       float64 `json:"sniper_pct"`
	InsiderCount    int64   `json:"insider_count"`
	InsiderPct      float64 `json:"insider_pct"`

	Market     string `json:"market"`
	PoolID     string `json:"pool_id"`
	QuoteToken string `json:"quote_token"`
	Deployer   string `json:"deployer"`

	FetchedAt time.Time `json:"fetched_at"`
}

// NoFreezeAuthority reports whether the freeze authority is renounced.
func (e *Enrichment) NoFreezeAuthority() bool {
	return e.FreezeAuthority == nil || *e.FreezeAuthority == ""
}

// NoMintAuthority reports whether the mint authority is renounced.
func (e *Enrichment) NoMintAuthority() bool {
	return e.MintAuthority == nil || *e.MintAuthority == ""
}
