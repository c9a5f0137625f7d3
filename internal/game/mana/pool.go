// Package mana models the per-player mana pool used by the add_mana and
// pay_mana effect kinds.
package mana

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Symbol identifies a mana symbol in the pool: the five colors plus "C" for
// generic/colorless.
type Symbol string

const (
	White   Symbol = "W"
	Blue    Symbol = "U"
	Black   Symbol = "B"
	Red     Symbol = "R"
	Green   Symbol = "G"
	Generic Symbol = "C"
)

// ParseSymbol normalizes a snapshot mana key to a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	switch Symbol(strings.ToUpper(strings.TrimSpace(s))) {
	case White:
		return White, nil
	case Blue:
		return Blue, nil
	case Black:
		return Black, nil
	case Red:
		return Red, nil
	case Green:
		return Green, nil
	case Generic:
		return Generic, nil
	}
	return "", fmt.Errorf("unknown mana symbol %q", s)
}

// Pool is a player's mana pool. It empties at step boundaries.
type Pool struct {
	mu      sync.RWMutex
	amounts map[Symbol]int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{amounts: make(map[Symbol]int)}
}

// Add puts amount mana of the given symbol into the pool.
func (p *Pool) Add(symbol Symbol, amount int) {
	if amount <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts[symbol] += amount
}

// Get returns the amount of a given symbol in the pool.
func (p *Pool) Get(symbol Symbol) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.amounts[symbol]
}

// Pay removes amount mana of the given symbol. Paying a Generic requirement
// consumes generic mana first, then colors in WUBRG order. Returns an error
// without mutating when the pool cannot cover the payment.
func (p *Pool) Pay(symbol Symbol, amount int) error {
	if amount <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if symbol != Generic {
		if p.amounts[symbol] < amount {
			return fmt.Errorf("insufficient %s mana: have %d, need %d", symbol, p.amounts[symbol], amount)
		}
		p.amounts[symbol] -= amount
		return nil
	}

	total := 0
	for _, count := range p.amounts {
		total += count
	}
	if total < amount {
		return fmt.Errorf("insufficient mana: have %d, need %d generic", total, amount)
	}
	order := []Symbol{Generic, White, Blue, Black, Red, Green}
	remaining := amount
	for _, sym := range order {
		if remaining == 0 {
			break
		}
		take := p.amounts[sym]
		if take > remaining {
			take = remaining
		}
		p.amounts[sym] -= take
		remaining -= take
	}
	return nil
}

// Empty clears the pool and returns how much mana was lost.
func (p *Pool) Empty() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	lost := 0
	for symbol, count := range p.amounts {
		lost += count
		delete(p.amounts, symbol)
	}
	return lost
}

// Snapshot returns the pool contents as a plain map keyed by symbol string.
func (p *Pool) Snapshot() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]int, len(p.amounts))
	for symbol, count := range p.amounts {
		if count != 0 {
			out[string(symbol)] = count
		}
	}
	return out
}

// Restore replaces the pool contents from a snapshot map. Unknown symbols
// are ignored.
func (p *Pool) Restore(snapshot map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts = make(map[Symbol]int, len(snapshot))
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		symbol, err := ParseSymbol(key)
		if err != nil {
			continue
		}
		if snapshot[key] > 0 {
			p.amounts[symbol] = snapshot[key]
		}
	}
}
