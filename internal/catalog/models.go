package catalog

// Product is one catalog entry as read from products.json.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand"`
	Price          *float64          `json:"price,omitempty"`
	Rating         *float64          `json:"rating,omitempty"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications"`
	Reviews        []Review          `json:"reviews"`
}

// Review is one customer review attached to a product.
type Review struct {
	Rating       float64 `json:"rating"`
	Text         string  `json:"text"`
	HelpfulCount int     `json:"helpful_count"`
}
