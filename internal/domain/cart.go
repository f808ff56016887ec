package domain

// Product is a single line item in the cart.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// NewProduct is what callers hand to AddToCart: a product without quantity.
type NewProduct struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

func (p NewProduct) WithQuantity(quantity int) Product {
	return Product{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: quantity,
	}
}

// Cart is ordered by insertion; ids are unique.
type Cart []Product

func (c Cart) Index(id string) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
