package pricing

// Product is an entry of the price catalog.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// Catalog indexes products by identifier. It is read-only once built.
type Catalog map[string]Product

// NewCatalog indexes the provided products. Later duplicates win.
func NewCatalog(products []Product) Catalog {
	catalog := make(Catalog, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return catalog
}

// Lookup returns the product registered under id.
func (c Catalog) Lookup(id string) (Product, bool) {
	p, ok := c[id]
	return p, ok
}
