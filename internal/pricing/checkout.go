package pricing

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownProduct is returned when a scan references a product absent from the catalog.
var ErrUnknownProduct = errors.New("unknown product")

// UnknownProductError carries the product id that failed to resolve.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Is lets errors.Is match ErrUnknownProduct.
func (e *UnknownProductError) Is(target error) bool {
	return target == ErrUnknownProduct
}

// Checkout accumulates scans for one cart and prices them on demand.
// A Checkout is not safe for concurrent use.
type Checkout struct {
	catalog   Catalog
	itemRules []ItemRule
	cartRules []CartRule
	counts    map[string]int
	order     []string
}

// NewCheckout builds a session. Each stage is stable-sorted by priority.
func NewCheckout(items []ItemRule, carts []CartRule, products []Product) *Checkout {
	return &Checkout{
		catalog:   NewCatalog(products),
		itemRules: sortByPriority(items),
		cartRules: sortByPriority(carts),
		counts:    make(map[string]int),
	}
}

// NewCheckoutFromRules builds a session from a mixed rule list.
func NewCheckoutFromRules(rules []Rule, products []Product) *Checkout {
	items, carts := SplitRules(rules)
	return NewCheckout(items, carts, products)
}

// Scan registers one more unit of productID.
func (c *Checkout) Scan(productID string) error {
	if _, ok := c.catalog.Lookup(productID); !ok {
		return &UnknownProductError{ProductID: productID}
	}
	if c.counts[productID] == 0 {
		c.order = append(c.order, productID)
	}
	c.counts[productID]++
	return nil
}

// Items returns a copy of the scanned quantities.
func (c *Checkout) Items() map[string]int {
	return maps.Clone(c.counts)
}

// Subtotal returns the undiscounted cart value.
func (c *Checkout) Subtotal() Money {
	return c.state().Subtotal()
}

// TotalDiscounts returns the sum of every applicable discount.
func (c *Checkout) TotalDiscounts() Money {
	return c.Evaluate().TotalDiscount
}

// Total returns Subtotal minus TotalDiscounts. It is not floored at zero.
func (c *Checkout) Total() Money {
	return c.Subtotal() - c.TotalDiscounts()
}

// Evaluate prices the current scans without changing the session.
func (c *Checkout) Evaluate() Evaluation {
	return Evaluate(c.state(), c.itemRules, c.cartRules)
}

// Summary evaluates once and returns the itemized breakdown.
func (c *Checkout) Summary() Summary {
	return buildSummary(c.state(), slices.Clone(c.order), c.Evaluate())
}

func (c *Checkout) state() State {
	return State{Catalog: c.catalog, Counts: c.counts}
}
