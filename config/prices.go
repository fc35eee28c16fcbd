package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/raid-guild/x402-payment-gate-go/core"
	"github.com/raid-guild/x402-payment-gate-go/types"
)

// PricesFile is the JSON document listing priced operations.
type PricesFile struct {
	Operations []PriceEntry `json:"operations"`
}

// PriceEntry prices one operation. Exactly one of Amount (minor units) or
// Price (whole units, shifted by the asset decimals) is set. Asset,
// Recipient and Network override the gate defaults.
type PriceEntry struct {
	Operation   string `json:"operation"`
	Path        string `json:"path"`
	Amount      string `json:"amount,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
	Asset       string `json:"asset,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	Network     string `json:"network,omitempty"`
}

// PriceTable builds the price table from the prices file, or from the
// default path and amount when no file is configured.
func (g GateConfig) PriceTable() (*core.PriceTable, error) {
	entries := []PriceEntry{{
		Operation: strings.Trim(g.DefaultPath, "/"),
		Path:      g.DefaultPath,
		Amount:    g.DefaultAmount,
	}}

	if g.PricesFile != "" {
		f, err := os.Open(g.PricesFile)
		if err != nil {
			return nil, fmt.Errorf("open prices file: %w", err)
		}
		defer f.Close()

		parsed, err := ParsePrices(f)
		if err != nil {
			return nil, fmt.Errorf("parse prices file %s: %w", g.PricesFile, err)
		}
		entries = parsed.Operations
	}

	requirements := make([]*core.Requirement, 0, len(entries))
	for _, e := range entries {
		r, err := g.requirement(e)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, r)
	}
	return core.NewPriceTable(requirements...)
}

// ParsePrices decodes a prices document.
func ParsePrices(r io.Reader) (PricesFile, error) {
	var pf PricesFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pf); err != nil {
		return PricesFile{}, err
	}
	if len(pf.Operations) == 0 {
		return PricesFile{}, fmt.Errorf("no operations defined")
	}
	return pf, nil
}

func (g GateConfig) requirement(e PriceEntry) (*core.Requirement, error) {
	amount, err := MinorUnits(e.Amount, e.Price, g.AssetDecimals)
	if err != nil {
		return nil, fmt.Errorf("operation %q: %w", e.Operation, err)
	}

	description := e.Description
	if description == "" {
		description = fmt.Sprintf("Payment of %s required for %s", DisplayAmount(amount, g.AssetDecimals), e.Path)
	}

	return core.NewRequirement(core.RequirementParams{
		Operation:         e.Operation,
		Path:              e.Path,
		Amount:            amount,
		Asset:             firstNonEmpty(e.Asset, g.Asset),
		Recipient:         firstNonEmpty(e.Recipient, g.Recipient),
		Network:           types.Network(firstNonEmpty(e.Network, g.Network)),
		Facilitator:       g.FacilitatorURL,
		Description:       description,
		AssetName:         g.AssetName,
		AssetVersion:      g.AssetVersion,
		Decimals:          g.AssetDecimals,
		MaxTimeoutSeconds: g.MaxTimeoutSeconds,
	})
}

// MinorUnits resolves an amount in minor units, or a whole-unit price
// shifted by decimals. The result must be an integer.
func MinorUnits(amount, price string, decimals int32) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	price = strings.TrimSpace(price)

	if (amount == "") == (price == "") {
		return nil, fmt.Errorf("exactly one of amount or price must be set")
	}

	if amount != "" {
		v, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", amount)
		}
		return v, nil
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", price, err)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("price %q has more than %d decimal places", price, decimals)
	}
	return shifted.BigInt(), nil
}

// DisplayAmount renders minor units as whole units.
func DisplayAmount(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
