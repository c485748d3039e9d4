package catalog

import "sort"

// Catalog is a lookup table of workflow definitions. The zero value is
// empty; use Default for the built-in set.
type Catalog struct {
	defs map[string]*Definition
}

// New builds a catalog from the given definitions. Later duplicates
// replace earlier ones.
func New(defs ...*Definition) *Catalog {
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		c.defs[d.Name] = d
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(builtins()...)
}

// Get returns the definition for the given workflow type.
func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Names returns the known workflow types, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions in name order.
func (c *Catalog) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(c.defs))
	for _, name := range c.Names() {
		defs = append(defs, c.defs[name])
	}
	return defs
}
