package core

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/raid-guild/x402-payment-gate-go/types"
)

// ErrInvalidRequirement is returned when a requirement fails validation.
var ErrInvalidRequirement = errors.New("invalid payment requirement")

const defaultMaxTimeoutSeconds = 60

// RequirementParams are the parameters for a priced operation.
type RequirementParams struct {
	Operation         string
	Path              string
	Amount            *big.Int
	Asset             string
	Recipient         string
	Network           types.Network
	Facilitator       string
	Description       string
	AssetName         string
	AssetVersion      string
	Decimals          int32
	MaxTimeoutSeconds int64
}

// Requirement is the immutable price of one protected operation.
type Requirement struct {
	operation         string
	path              string
	amount            *big.Int
	asset             string
	recipient         string
	network           types.Network
	facilitator       string
	description       string
	assetName         string
	assetVersion      string
	decimals          int32
	maxTimeoutSeconds int64
}

// NewRequirement validates the parameters and builds a requirement.
func NewRequirement(p RequirementParams) (*Requirement, error) {

	// Verify the amount is strictly positive
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidRequirement)
	}

	// Verify the addressing fields are present
	if strings.TrimSpace(p.Asset) == "" {
		return nil, fmt.Errorf("%w: asset is required", ErrInvalidRequirement)
	}
	if strings.TrimSpace(p.Recipient) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidRequirement)
	}
	if p.Network == "" {
		return nil, fmt.Errorf("%w: network is required", ErrInvalidRequirement)
	}
	if strings.TrimSpace(p.Facilitator) == "" {
		return nil, fmt.Errorf("%w: facilitator is required", ErrInvalidRequirement)
	}
	if p.Decimals < 0 {
		return nil, fmt.Errorf("%w: decimals must not be negative", ErrInvalidRequirement)
	}

	maxTimeout := p.MaxTimeoutSeconds
	if maxTimeout <= 0 {
		maxTimeout = defaultMaxTimeoutSeconds
	}

	return &Requirement{
		operation:         p.Operation,
		path:              p.Path,
		amount:            new(big.Int).Set(p.Amount),
		asset:             p.Asset,
		recipient:         p.Recipient,
		network:           p.Network,
		facilitator:       p.Facilitator,
		description:       p.Description,
		assetName:         p.AssetName,
		assetVersion:      p.AssetVersion,
		decimals:          p.Decimals,
		maxTimeoutSeconds: maxTimeout,
	}, nil
}

func (r *Requirement) Operation() string        { return r.operation }
func (r *Requirement) Path() string             { return r.path }
func (r *Requirement) Asset() string            { return r.asset }
func (r *Requirement) Recipient() string        { return r.recipient }
func (r *Requirement) Network() types.Network   { return r.network }
func (r *Requirement) Facilitator() string      { return r.facilitator }
func (r *Requirement) Description() string      { return r.description }
func (r *Requirement) AssetName() string        { return r.assetName }
func (r *Requirement) AssetVersion() string     { return r.assetVersion }
func (r *Requirement) Decimals() int32          { return r.decimals }
func (r *Requirement) MaxTimeoutSeconds() int64 { return r.maxTimeoutSeconds }

// Amount returns a copy of the required amount in minor units.
func (r *Requirement) Amount() *big.Int {
	return new(big.Int).Set(r.amount)
}

// Wire returns the serialized form carried in a challenge.
func (r *Requirement) Wire() types.PaymentRequirement {
	return types.PaymentRequirement{
		Version:     types.X402Version1,
		Amount:      r.amount.String(),
		Asset:       r.asset,
		Recipient:   r.recipient,
		Network:     r.network,
		Facilitator: r.facilitator,
		Description: r.description,
	}
}

// PriceTable maps request paths to requirements. It is never mutated after
// construction.
type PriceTable struct {
	byPath map[string]*Requirement
	paths  []string
}

// NewPriceTable builds a price table keyed by requirement path.
func NewPriceTable(requirements ...*Requirement) (*PriceTable, error) {
	byPath := make(map[string]*Requirement, len(requirements))
	paths := make([]string, 0, len(requirements))
	for _, r := range requirements {
		if r == nil {
			return nil, fmt.Errorf("%w: nil requirement", ErrInvalidRequirement)
		}
		if r.path == "" {
			return nil, fmt.Errorf("%w: operation %q has no path", ErrInvalidRequirement, r.operation)
		}
		if _, exists := byPath[r.path]; exists {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidRequirement, r.path)
		}
		byPath[r.path] = r
		paths = append(paths, r.path)
	}
	sort.Strings(paths)
	return &PriceTable{byPath: byPath, paths: paths}, nil
}

// Lookup returns the requirement for a path.
func (t *PriceTable) Lookup(path string) (*Requirement, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.byPath[path]
	return r, ok
}

// All returns the requirements sorted by path.
func (t *PriceTable) All() []*Requirement {
	if t == nil {
		return nil
	}
	out := make([]*Requirement, 0, len(t.paths))
	for _, p := range t.paths {
		out = append(out, t.byPath[p])
	}
	return out
}
