package model

import "strings"

// Asset identifies one leg of a swap: a token symbol plus its mint address.
type Asset struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// IsZero reports whether neither symbol nor address is known.
func (a Asset) IsZero() bool {
	return a.Symbol == "" && a.Address == ""
}

// SameAsset compares by address when both sides carry one, and falls back
// to a case-insensitive symbol match otherwise.
func SameAsset(a, b Asset) bool {
	if a.Address != "" && b.Address != "" {
		return a.Address == b.Address
	}
	if a.Symbol == "" || b.Symbol == "" {
		return false
	}
	return strings.EqualFold(a.Symbol, b.Symbol)
}
