package normalize

import (
	"github.com/gyeh/nephtrends/internal/model"
)

// Catalog resolves source-specific names to tracked variables.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	byTest      map[string]model.Variable
	visitFields []visitField
}

type visitField struct {
	variable model.Variable
	field    string
}

// NewCatalog builds a Catalog from the given variable sources. When two
// sources claim the same test name, the first one wins.
func NewCatalog(sources []model.VariableSource) *Catalog {
	c := &Catalog{byTest: make(map[string]model.Variable)}
	for _, src := range sources {
		for _, name := range src.InvestigationNames {
			key := NameKey(name)
			if key == "" {
				continue
			}
			if _, taken := c.byTest[key]; !taken {
				c.byTest[key] = src.Variable
			}
		}
		for _, f := range src.VisitFields {
			if f != "" {
				c.visitFields = append(c.visitFields, visitField{variable: src.Variable, field: f})
			}
		}
	}
	return c
}

var defaultCatalog = NewCatalog(model.AllVariables)

// DefaultCatalog returns the catalog for the built-in name mapping.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// LookupTest returns the variable an investigation test name maps to.
func (c *Catalog) LookupTest(name string) (model.Variable, bool) {
	v, ok := c.byTest[NameKey(name)]
	return v, ok
}
