// Package types contains the fixed table of pools the dashboard knows about.
package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is a deposit pool with a stable address and display name.
type Pool struct {
	Address common.Address `json:"address"`
	Name    string         `json:"name"`
}

// Registry is an ordered pool table. The order is the tie-break order for
// best-pool selection and the display order for per-pool views.
type Registry []Pool

// DefaultPoolSpec is the pool table used when none is configured.
const DefaultPoolSpec = "cDAI Pool=0x9b226970cdeada0026aed50d02e4a0dd37c92b6f"

// ParseRegistry parses a comma separated "name=address" list.
func ParseRegistry(raw string) (Registry, error) {
	var reg Registry
	seen := make(map[common.Address]bool)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, addr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("pool entry %q: want name=address", entry)
		}
		name, addr = strings.TrimSpace(name), strings.TrimSpace(addr)
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("pool entry %q: invalid address %q", entry, addr)
		}
		a := common.HexToAddress(addr)
		if seen[a] {
			return nil, fmt.Errorf("pool entry %q: duplicate address", entry)
		}
		seen[a] = true
		reg = append(reg, Pool{Address: a, Name: name})
	}

	if len(reg) == 0 {
		return nil, fmt.Errorf("no pools configured")
	}
	return reg, nil
}

// Name returns the display name of addr.
func (r Registry) Name(addr common.Address) (string, bool) {
	for _, p := range r {
		if p.Address == addr {
			return p.Name, true
		}
	}
	return "", false
}

// Contains reports whether addr is in the table.
func (r Registry) Contains(addr common.Address) bool {
	_, ok := r.Name(addr)
	return ok
}

// Addresses lists the pool addresses in table order.
func (r Registry) Addresses() []common.Address {
	out := make([]common.Address, len(r))
	for i, p := range r {
		out[i] = p.Address
	}
	return out
}

// Eligible returns the pools that may be selected as best pool, keeping the
// table order.
func (r Registry) Eligible(excluded []common.Address) Registry {
	skip := make(map[common.Address]bool, len(excluded))
	for _, a := range excluded {
		skip[a] = true
	}
	out := make(Registry, 0, len(r))
	for _, p := range r {
		if !skip[p.Address] {
			out = append(out, p)
		}
	}
	return out
}

// ParseAddresses parses a comma separated address list.
func ParseAddresses(raw string) ([]common.Address, error) {
	var out []common.Address
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}
