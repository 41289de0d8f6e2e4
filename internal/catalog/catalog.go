// Package catalog holds the static model, fallback-group and pricing tables
// the invocation pipeline consults. The tables are data: built-in defaults
// live in builtin.go and configuration may extend them.
package catalog

import (
	"fmt"
	"slices"
)

// Model describes one inference model and its default sampling parameters.
type Model struct {
	ID                 string  `yaml:"id" toml:"id"`
	Provider           string  `yaml:"provider" toml:"provider"`
	DisplayName        string  `yaml:"displayName,omitempty" toml:"displayName"`
	Description        string  `yaml:"description,omitempty" toml:"description"`
	MaxTokens          int     `yaml:"maxTokens,omitempty" toml:"maxTokens"`
	DefaultTemperature float64 `yaml:"defaultTemperature,omitempty" toml:"defaultTemperature"`
	DefaultTopP        float64 `yaml:"defaultTopP,omitempty" toml:"defaultTopP"`
}

// Group is an ordered fallback chain of model ids within one provider family.
type Group struct {
	Key         string   `yaml:"key" toml:"key"`
	Name        string   `yaml:"name,omitempty" toml:"name"`
	Provider    string   `yaml:"provider" toml:"provider"`
	Models      []string `yaml:"models" toml:"models"`
	Description string   `yaml:"description,omitempty" toml:"description"`
}

// Catalog indexes models, groups and prices. Group order is significant:
// flattening the groups of one provider yields its global fallback sequence.
type Catalog struct {
	models  map[string]Model
	groups  []Group
	pricing map[string]Pricing
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		models:  make(map[string]Model),
		pricing: make(map[string]Pricing),
	}
}

// AddModel registers a model, replacing any earlier entry with the same id.
func (c *Catalog) AddModel(m Model) {
	c.models[m.ID] = m
}

// AddGroup appends a group to the ordered group list. A group whose key is
// already present replaces the existing one in place.
func (c *Catalog) AddGroup(g Group) {
	for i := range c.groups {
		if c.groups[i].Key == g.Key && c.groups[i].Provider == g.Provider {
			c.groups[i] = g
			return
		}
	}
	c.groups = append(c.groups, g)
}

// SetPricing registers the price of a model.
func (c *Catalog) SetPricing(modelID string, p Pricing) {
	c.pricing[modelID] = p
}

// Model looks up a model by id.
func (c *Catalog) Model(id string) (Model, bool) {
	m, ok := c.models[id]
	return m, ok
}

// Models returns every model of a provider, sorted by id.
func (c *Catalog) Models(provider string) []Model {
	var out []Model
	for _, m := range c.models {
		if provider == "" || m.Provider == provider {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Model) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Groups returns the ordered groups of a provider. An empty provider
// returns every group.
func (c *Catalog) Groups(provider string) []Group {
	var out []Group
	for _, g := range c.groups {
		if provider == "" || g.Provider == provider {
			out = append(out, g)
		}
	}
	return out
}

// Sequence flattens the provider's groups into its fallback order.
func (c *Catalog) Sequence(provider string) []string {
	var seq []string
	for _, g := range c.Groups(provider) {
		seq = append(seq, g.Models...)
	}
	return seq
}

// Pricing returns the price for a model, if one is registered.
func (c *Catalog) Pricing(modelID string) (Pricing, bool) {
	p, ok := c.pricing[modelID]
	return p, ok
}

// Cost prices a request. Unknown models cost nothing so that unregistered
// or local models never break an invocation.
func (c *Catalog) Cost(modelID string, inputTokens, outputTokens int) CostInfo {
	p, ok := c.pricing[modelID]
	if !ok {
		return ZeroCost()
	}
	return CalculateCost(p, inputTokens, outputTokens)
}

// Validate reports groups that reference models the catalog does not know.
func (c *Catalog) Validate() error {
	for _, g := range c.groups {
		for _, id := range g.Models {
			if _, ok := c.models[id]; !ok {
				return fmt.Errorf("group %s/%s references unknown model %q", g.Provider, g.Key, id)
			}
		}
	}
	return nil
}
