package model

import (
	"strings"

	"github.com/dukerupert/casa/internal/errs"
)

// MarketItem is something that can be bought. Items without a user are
// shared by every household.
type MarketItem struct {
	Base
	Name  string `json:"name"`
	Type  string `json:"type"`
	Group Ref    `json:"group"`
	User  string `json:"user"`
}

func (m *MarketItem) Owner() string { return m.User }

func (m *MarketItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	return nil
}

func (m *MarketItem) Links() []Link {
	if m.Group.IsZero() {
		return nil
	}
	return []Link{{Path: "group", Collection: MarketItemGroups, Ref: &m.Group}}
}

type MarketItemGroup struct {
	Base
	Name string `json:"name"`
	Icon *Icon  `json:"icon,omitempty"`
}

func (g *MarketItemGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	return nil
}

type CartItem struct {
	MarketItem Ref     `json:"marketItem"`
	Quantity   float64 `json:"quantity"`
}

type MarketCart struct {
	Base
	Name  string     `json:"name"`
	Itens []CartItem `json:"itens"`
	User  string     `json:"user"`
}

func (c *MarketCart) Owner() string { return c.User }

func (c *MarketCart) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	if c.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	for i, it := range c.Itens {
		if it.MarketItem.IsZero() {
			return errs.Newf(errs.EInvalid, "itens[%d].marketItem is required", i)
		}
		if it.Quantity < 0 {
			return errs.Newf(errs.EInvalid, "itens[%d].quantity must not be negative", i)
		}
	}
	return nil
}

func (c *MarketCart) Links() []Link {
	links := make([]Link, 0, len(c.Itens))
	for i := range c.Itens {
		links = append(links, Link{Path: "itens.marketItem", Collection: MarketItems, Ref: &c.Itens[i].MarketItem, List: true})
	}
	return links
}

func (c *MarketCart) Prune() {
	kept := make([]CartItem, 0, len(c.Itens))
	for _, it := range c.Itens {
		if !it.MarketItem.Stale() {
			kept = append(kept, it)
		}
	}
	c.Itens = kept
}
