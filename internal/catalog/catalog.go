package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

var ErrModuleNotFound = errors.New("module not found")

type spec struct {
	CreditToCurrencyRate float64  `json:"credit_to_currency_rate"`
	Modules              []Module `json:"modules"`
}

type snapshot struct {
	rate    float64
	modules []Module          // catalog order
	byID    map[string]Module // id -> module
}

// Catalog resolves module ids against a validated, read-only spec file.
// The spec is held behind an atomic snapshot so reads are lock-free and
// Reload swaps the whole catalog at once, never mutating in place.
type Catalog struct {
	path string
	snap atomic.Pointer[snapshot]
}

// Load reads and validates the catalog file at path.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// New builds a catalog from in-process data. For embedders and tests;
// catalogs built this way have no backing file, so Reload fails.
func New(creditToCurrencyRate float64, modules []Module) (*Catalog, error) {
	snap, err := buildSnapshot(spec{CreditToCurrencyRate: creditToCurrencyRate, Modules: modules})
	if err != nil {
		return nil, err
	}
	c := &Catalog{}
	c.snap.Store(snap)
	return c, nil
}

// Reload re-reads the catalog file and atomically replaces the snapshot.
// On any error the previous snapshot stays in effect.
func (c *Catalog) Reload() error {
	buf, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var sp spec
	if err := json.Unmarshal(buf, &sp); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	snap, err := buildSnapshot(sp)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", c.path, err)
	}
	c.snap.Store(snap)
	return nil
}

func buildSnapshot(sp spec) (*snapshot, error) {
	if sp.CreditToCurrencyRate <= 0 {
		return nil, fmt.Errorf("credit_to_currency_rate must be positive, got %v", sp.CreditToCurrencyRate)
	}
	if len(sp.Modules) == 0 {
		return nil, errors.New("no modules defined")
	}
	byID := make(map[string]Module, len(sp.Modules))
	for _, m := range sp.Modules {
		if m.ID == "" {
			return nil, errors.New("module with empty id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		if m.RequiredScore < 0 || m.RequiredScore > 1 {
			return nil, fmt.Errorf("module %q: required_score %v outside [0,1]", m.ID, m.RequiredScore)
		}
		if m.CreditsOnPass < 0 {
			return nil, fmt.Errorf("module %q: negative credits_on_pass", m.ID)
		}
		if m.CooldownSeconds < 0 {
			return nil, fmt.Errorf("module %q: negative cooldown_seconds", m.ID)
		}
		if len(m.Questions) == 0 {
			return nil, fmt.Errorf("module %q: no questions", m.ID)
		}
		seen := make(map[string]struct{}, len(m.Questions))
		for _, q := range m.Questions {
			if q.ID == "" {
				return nil, fmt.Errorf("module %q: question with empty id", m.ID)
			}
			if _, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("module %q: duplicate question id %q", m.ID, q.ID)
			}
			seen[q.ID] = struct{}{}
			if len(q.Options) < 2 {
				return nil, fmt.Errorf("module %q question %q: fewer than two options", m.ID, q.ID)
			}
			if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
				return nil, fmt.Errorf("module %q question %q: correct_option_index %d out of range", m.ID, q.ID, q.CorrectOptionIndex)
			}
		}
		byID[m.ID] = m
	}
	return &snapshot{rate: sp.CreditToCurrencyRate, modules: sp.Modules, byID: byID}, nil
}

// GetModule returns the module with the given id, or ErrModuleNotFound.
func (c *Catalog) GetModule(id string) (Module, error) {
	s := c.snap.Load()
	m, ok := s.byID[id]
	if !ok {
		return Module{}, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
	}
	return m, nil
}

// ListModules returns every module's metadata, in catalog order, without
// question content. Useful for rendering a module-selection screen.
func (c *Catalog) ListModules() []ModuleSummary {
	s := c.snap.Load()
	out := make([]ModuleSummary, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m.Summary())
	}
	return out
}

// CreditsToCurrency converts a credit amount to its display currency value
// using the catalog's global rate.
func (c *Catalog) CreditsToCurrency(credits int) float64 {
	return float64(credits) * c.snap.Load().rate
}
