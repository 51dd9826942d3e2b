// Package chain provides the immutable registry of chains the bridge can move value between.
package chain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/config"
)

// Currency is a chain's native currency.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Contracts holds deployed contract addresses on a chain.
type Contracts struct {
	Bridge    string `json:"bridge,omitempty"`
	Factory   string `json:"factory,omitempty"`
	Quest     string `json:"quest,omitempty"`
	Community string `json:"community,omitempty"`
	Activity  string `json:"activity,omitempty"`
}

// Chain is one registry entry.
type Chain struct {
	ID            uint64        `json:"id"`
	Name          string        `json:"name"`
	RPCURL        string        `json:"-"`
	ExplorerURL   string        `json:"explorerUrl,omitempty"`
	Currency      Currency      `json:"nativeCurrency"`
	FinalityDepth uint64        `json:"finalityDepth"`
	LegTime       time.Duration `json:"-"`
	Hub           bool          `json:"hub"`
	Contracts     Contracts     `json:"contracts"`
	Validators    []string      `json:"validators"`
	Quorum        int           `json:"quorum"`
	GasLimit      uint64        `json:"-"`
}

// LegSeconds is the chain's contribution to a leg time estimate.
func (c Chain) LegSeconds() int64 {
	return int64(c.LegTime / time.Second)
}

func (c Chain) clone() Chain {
	c.Validators = append([]string(nil), c.Validators...)
	return c
}

// Registry is a read-only table of chains and their direct links.
type Registry struct {
	order  []uint64
	chains map[uint64]Chain
	links  map[uint64]map[uint64]struct{}
	hub    uint64
	hasHub bool
}

// Link declares a direct bridge link between two chains.
type Link struct {
	From uint64
	To   uint64
}

// NewRegistry validates chains and links and builds the registry.
func NewRegistry(chains []Chain, links []Link) (*Registry, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("chain registry: no chains configured")
	}

	r := &Registry{
		order:  make([]uint64, 0, len(chains)),
		chains: make(map[uint64]Chain, len(chains)),
		links:  make(map[uint64]map[uint64]struct{}, len(chains)),
	}

	for _, c := range chains {
		if c.ID == 0 {
			return nil, fmt.Errorf("chain registry: chain %q has no id", c.Name)
		}
		if _, dup := r.chains[c.ID]; dup {
			return nil, fmt.Errorf("chain registry: duplicate chain id %d", c.ID)
		}
		if c.Hub {
			if r.hasHub {
				return nil, fmt.Errorf("chain registry: chains %d and %d are both marked as hub", r.hub, c.ID)
			}
			r.hub, r.hasHub = c.ID, true
		}

		validators := make([]string, 0, len(c.Validators))
		seen := make(map[string]struct{}, len(c.Validators))
		for _, v := range c.Validators {
			key := strings.ToLower(v)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("chain registry: chain %d lists validator %s twice", c.ID, v)
			}
			seen[key] = struct{}{}
			validators = append(validators, bridge.NormalizeAddress(v))
		}
		c.Validators = validators

		if c.Quorum == 0 {
			c.Quorum = DefaultQuorum(len(validators))
		}
		if c.Quorum > len(validators) {
			return nil, fmt.Errorf("chain registry: chain %d quorum %d exceeds %d validators", c.ID, c.Quorum, len(validators))
		}

		r.order = append(r.order, c.ID)
		r.chains[c.ID] = c
		r.links[c.ID] = make(map[uint64]struct{})
	}

	for _, l := range links {
		if _, ok := r.chains[l.From]; !ok {
			return nil, fmt.Errorf("chain registry: link references unknown chain %d", l.From)
		}
		if _, ok := r.chains[l.To]; !ok {
			return nil, fmt.Errorf("chain registry: link references unknown chain %d", l.To)
		}
		if l.From == l.To {
			return nil, fmt.Errorf("chain registry: chain %d cannot link to itself", l.From)
		}
		r.links[l.From][l.To] = struct{}{}
		r.links[l.To][l.From] = struct{}{}
	}

	return r, nil
}

// FromConfig builds a registry from the loaded configuration.
func FromConfig(cfg *config.Config) (*Registry, error) {
	chains := make([]Chain, 0, len(cfg.Chains))
	for _, c := range cfg.Chains {
		chains = append(chains, Chain{
			ID:            c.ID,
			Name:          c.Name,
			RPCURL:        c.RPCURL,
			ExplorerURL:   c.ExplorerURL,
			Currency:      Currency{Name: c.Currency.Name, Symbol: c.Currency.Symbol, Decimals: c.Currency.Decimals},
			FinalityDepth: c.FinalityDepth,
			LegTime:       c.LegTime,
			Hub:           c.Hub,
			Contracts: Contracts{
				Bridge:    c.Contracts.Bridge,
				Factory:   c.Contracts.Factory,
				Quest:     c.Contracts.Quest,
				Community: c.Contracts.Community,
				Activity:  c.Contracts.Activity,
			},
			Validators: c.Validators,
			Quorum:     c.Quorum,
			GasLimit:   c.GasLimit,
		})
	}
	links := make([]Link, 0, len(cfg.Links))
	for _, l := range cfg.Links {
		links = append(links, Link{From: l.From, To: l.To})
	}
	return NewRegistry(chains, links)
}

// DefaultQuorum is ceil(2n/3), the smallest supermajority of n validators.
func DefaultQuorum(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// Get returns the chain with the given id.
func (r *Registry) Get(id uint64) (Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", bridge.ErrUnsupportedChain, id)
	}
	return c.clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id uint64) bool {
	_, ok := r.chains[id]
	return ok
}

// List returns every chain in configuration order.
func (r *Registry) List() []Chain {
	out := make([]Chain, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.chains[id].clone())
	}
	return out
}

// Hub returns the hub chain if one is configured.
func (r *Registry) Hub() (Chain, bool) {
	if !r.hasHub {
		return Chain{}, false
	}
	return r.chains[r.hub].clone(), true
}

// Linked reports whether a and b share a direct link. The hub links to every chain.
func (r *Registry) Linked(a, b uint64) bool {
	if a == b || !r.Has(a) || !r.Has(b) {
		return false
	}
	if r.hasHub && (a == r.hub || b == r.hub) {
		return true
	}
	_, ok := r.links[a][b]
	return ok
}

// Neighbors returns the ids directly linked to id in ascending order.
func (r *Registry) Neighbors(id uint64) []uint64 {
	if !r.Has(id) {
		return nil
	}
	out := make([]uint64, 0, len(r.order))
	for _, other := range r.order {
		if r.Linked(id, other) {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validators returns the validator set and quorum that attest messages leaving id.
func (r *Registry) Validators(id uint64) ([]string, int, error) {
	c, ok := r.chains[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", bridge.ErrUnsupportedChain, id)
	}
	return append([]string(nil), c.Validators...), c.Quorum, nil
}

// IsValidator reports whether address belongs to the validator set of chain id.
func (r *Registry) IsValidator(id uint64, address string) bool {
	c, ok := r.chains[id]
	if !ok {
		return false
	}
	for _, v := range c.Validators {
		if bridge.SameAddress(v, address) {
			return true
		}
	}
	return false
}
