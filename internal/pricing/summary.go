package pricing

// LineItem is the priced breakdown of one scanned product.
type LineItem struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	UnitPrice      Money  `json:"unitPrice"`
	TotalPrice     Money  `json:"totalPrice"`
	DiscountAmount Money  `json:"discountAmount"`
	FinalPrice     Money  `json:"finalPrice"`
}

// Summary is the full pricing breakdown of a cart.
type Summary struct {
	Items            []LineItem        `json:"items"`
	Subtotal         Money             `json:"subtotal"`
	TotalDiscount    Money             `json:"totalDiscount"`
	FinalTotal       Money             `json:"finalTotal"`
	AppliedDiscounts []AppliedDiscount `json:"appliedDiscounts"`
}

// DiscountFor returns the summed item-scoped discount for a product.
func (s Summary) DiscountFor(productID string) Money {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return item.DiscountAmount
		}
	}
	return 0
}

func buildSummary(state State, order []string, eval Evaluation) Summary {
	itemDiscounts := make(map[string]Money)
	for _, d := range eval.Applied {
		if d.Scope == ScopeItem {
			itemDiscounts[d.ItemID] += d.Amount
		}
	}

	items := make([]LineItem, 0, len(order))
	for _, id := range order {
		qty := state.Quantity(id)
		product, ok := state.Catalog.Lookup(id)
		if !ok || qty <= 0 {
			continue
		}
		total := Money(qty) * product.Price
		discount := itemDiscounts[id]
		items = append(items, LineItem{
			ProductID:      id,
			ProductName:    product.Name,
			Quantity:       qty,
			UnitPrice:      product.Price,
			TotalPrice:     total,
			DiscountAmount: discount,
			FinalPrice:     total - discount,
		})
	}

	applied := eval.Applied
	if applied == nil {
		applied = []AppliedDiscount{}
	}
	subtotal := state.Subtotal()
	return Summary{
		Items:            items,
		Subtotal:         subtotal,
		TotalDiscount:    eval.TotalDiscount,
		FinalTotal:       subtotal - eval.TotalDiscount,
		AppliedDiscounts: applied,
	}
}
