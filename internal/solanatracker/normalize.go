package solanatracker

import (
	"errors"
	"time"

	"wallet-tracker/internal/model"
)

var errMissingTx = errors.New("solanatracker: trade without tx signature")

// Normalize converts one upstream trade into a SwapEvent. Absent nested
// fields become zero values; only a missing signature is rejected.
func Normalize(raw RawTrade) (model.SwapEvent, error) {
	if raw.Tx == "" {
		return model.SwapEvent{}, errMissingTx
	}
	ev := model.SwapEvent{
		TxID:          raw.Tx,
		From:          leg(raw.From),
		To:            leg(raw.To),
		FromAmount:    raw.From.Amount.Abs(),
		ToAmount:      raw.To.Amount.Abs(),
		FromPriceUSD:  raw.From.PriceUSD,
		ToPriceUSD:    raw.To.PriceUSD,
		TradeValueUSD: raw.Volume.USD,
		Program:       raw.Program,
	}
	if raw.Time > 0 {
		ev.Timestamp = time.UnixMilli(int64(raw.Time)).UTC()
	}
	return ev, nil
}

func leg(l RawLeg) model.Asset {
	return model.Asset{
		Symbol:  l.Token.Symbol,
		Address: l.Address,
		Name:    orDefault(l.Token.Name, "Unknown"),
	}
}

// NormalizeAll converts a batch in upstream order, dropping malformed
// entries.
func NormalizeAll(raws []RawTrade) []model.SwapEvent {
	out := make([]model.SwapEvent, 0, len(raws))
	for _, raw := range raws {
		ev, err := Normalize(raw)
		if err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// NormalizeToken flattens a token payload into an Enrichment. The first
// pool is treated as the primary one; age is measured against now.
func NormalizeToken(raw RawToken, now time.Time) *model.Enrichment {
	en := &model.Enrichment{
		Name:        orDefault(raw.Token.Name, "Unknown"),
		Symbol:      orDefault(raw.Token.Symbol, "???"),
		Decimals:    raw.Token.Decimals,
		Creator:     raw.Token.Creation.Creator,
		CreatedTx:   raw.Token.Creation.CreatedTx,
		HasMetadata: raw.Token.HasFileMetaData,
		ImageURL:    raw.Token.Image,
		Description: raw.Token.Description,

		Holders:   int64(raw.Holders),
		TotalTxns: int64(raw.Txns),
		Buys:      int64(raw.Buys),
		Sells:     int64(raw.Sells),

		PriceChange1m:  raw.Events["1m"].PriceChangePercentage,
		PriceChange5m:  raw.Events["5m"].PriceChangePercentage,
		PriceChange15m: raw.Events["15m"].PriceChangePercentage,
		PriceChange1h:  raw.Events["1h"].PriceChangePercentage,

		Top10Pct:        raw.Risk.Top10,
		DevPct:          raw.Risk.Dev.Percentage,
		DevAmount:       raw.Risk.Dev.Amount,
		RiskScore:       raw.Risk.Score,
		Rugged:          raw.Risk.Rugged,
		JupiterVerified: raw.Risk.JupiterVerified,
		SniperCount:     int64(raw.Risk.Snipers.Count),
		SniperPct:       raw.Risk.Snipers.TotalPercentage,
		InsiderCount:    int64(raw.Risk.Insiders.Count),
		InsiderPct:      raw.Risk.Insiders.TotalPercentage,

		Market:    "unknown",
		FetchedAt: now.UTC(),
	}
	if ct := int64(raw.Token.Creation.CreatedTime); ct > 0 {
		en.AgeSeconds = now.Unix() - ct
	}
	if raw.Sells > 0 {
		en.BuySellRatio = raw.Buys / raw.Sells
	}

	if len(raw.Pools) > 0 {
		p := raw.Pools[0]
		en.MarketCap = p.MarketCap.USD
		en.Liquidity = p.Liquidity.USD
		en.PriceUSD = p.Price.USD
		en.PriceQuote = p.Price.Quote
		en.TokenSupply = p.TokenSupply
		en.PoolBuys = int64(p.Txns.Buys)
		en.PoolSells = int64(p.Txns.Sells)
		en.PoolTotalTxns = int64(p.Txns.Total)
		en.PoolVolume = p.Txns.Volume
		en.PoolVolume24h = p.Txns.Volume24h
		en.LPBurn = p.LPBurn
		en.FreezeAuthority = p.Security.FreezeAuthority
		en.MintAuthority = p.Security.MintAuthority
		en.Market = orDefault(p.Market, "unknown")
		en.PoolID = p.PoolID
		en.QuoteToken = p.QuoteToken
		en.Deployer = p.Deployer
	}
	return en
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
