package solanatracker

import "github.com/shopspring/decimal"

// Wire types for the data API. Every nested object is a value so a missing
// key decodes to its zero value; numbers the API sometimes sends as floats
// are decoded as float64.

type tradesResponse struct {
	Trades      []RawTrade `json:"trades"`
	NextCursor  any        `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

// RawTrade is one wallet swap as returned by /wallet/{wallet}/trades.
type RawTrade struct {
	Tx      string    `json:"tx"`
	From    RawLeg    `json:"from"`
	To      RawLeg    `json:"to"`
	Price   RawPrice  `json:"price"`
	Volume  RawVolume `json:"volume"`
	Wallet  string    `json:"wallet"`
	Program string    `json:"program"`
	Time    float64   `json:"time"` // unix ms
}

type RawLeg struct {
	Address  string          `json:"address"`
	Amount   decimal.Decimal `json:"amount"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	Token    RawTokenInfo    `json:"token"`
}

type RawTokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Image    string `json:"image"`
	Decimals int    `json:"decimals"`
}

type RawPrice struct {
	USD decimal.Decimal `json:"usd"`
	SOL decimal.Decimal `json:"sol"`
}

type RawVolume struct {
	USD decimal.Decimal `json:"usd"`
	SOL decimal.Decimal `json:"sol"`
}

// RawToken is the /tokens/{mint} payload.
type RawToken struct {
	Token   RawTokenMeta        `json:"token"`
	Pools   []RawPool           `json:"pools"`
	Events  map[string]RawEvent `json:"events"`
	Risk    RawRisk             `json:"risk"`
	Buys    float64             `json:"buys"`
	Sells   float64             `json:"sells"`
	Txns    float64             `json:"txns"`
	Holders float64             `json:"holders"`
}

type RawTokenMeta struct {
	Name            string      `json:"name"`
	Symbol          string      `json:"symbol"`
	Mint            string      `json:"mint"`
	Decimals        int         `json:"decimals"`
	Image           string      `json:"image"`
	Description     string      `json:"description"`
	HasFileMetaData bool        `json:"hasFileMetaData"`
	Creation        RawCreation `json:"creation"`
}

type RawCreation struct {
	Creator     string  `json:"creator"`
	CreatedTx   string  `json:"created_tx"`
	CreatedTime float64 `json:"created_time"` // unix seconds
}

type RawPool struct {
	PoolID      string      `json:"poolId"`
	Liquidity   RawQuoteUSD `json:"liquidity"`
	Price       RawQuoteUSD `json:"price"`
	TokenSupply float64     `json:"tokenSupply"`
	LPBurn      float64     `json:"lpBurn"`
	MarketCap   RawQuoteUSD `json:"marketCap"`
	Market      string      `json:"market"`
	QuoteToken  string      `json:"quoteToken"`
	Deployer    string      `json:"deployer"`
	Security    RawSecurity `json:"security"`
	Txns        RawPoolTxns `json:"txns"`
}

type RawQuoteUSD struct {
	Quote float64 `json:"quote"`
	USD   float64 `json:"usd"`
}

type RawSecurity struct {
	FreezeAuthority *string `json:"freezeAuthority"`
	MintAuthority   *string `json:"mintAuthority"`
}

type RawPoolTxns struct {
	Buys      float64 `json:"buys"`
	Sells     float64 `json:"sells"`
	Total     float64 `json:"total"`
	Volume    float64 `json:"volume"`
	Volume24h float64 `json:"volume24h"`
}

type RawEvent struct {
	PriceChangePercentage float64 `json:"priceChangePercentage"`
}

type RawRisk struct {
	Snipers         RawHolderGroup `json:"snipers"`
	Insiders        RawHolderGroup `json:"insiders"`
	Top10           float64        `json:"top10"`
	Dev             RawDev         `json:"dev"`
	Rugged          bool           `json:"rugged"`
	Score           float64        `json:"score"`
	JupiterVerified bool           `json:"jupiterVerified"`
}

type RawHolderGroup struct {
	Count           float64 `json:"count"`
	TotalBalance    float64 `json:"totalBalance"`
	TotalPercentage float64 `json:"totalPercentage"`
}

type RawDev struct {
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}
