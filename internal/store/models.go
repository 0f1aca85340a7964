package store

// ProductChunk is one embedded slice of a product as stored in the local
// vector index. Price and Rating are nil when the catalog had no value.
type ProductChunk struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	Price        *float64  `json:"price,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	AvgSentiment float64   `json:"avg_sentiment"`
	Type         string    `json:"type"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"-"`
}
