package models

// CartItem is a client-local cart line. Stock is a snapshot taken when the
// product was added.
type CartItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

func (i CartItem) OrderItem() OrderItem {
	return OrderItem{
		ProductID: i.ProductID,
		Name:      i.Name,
		Price:     i.Price,
		Image:     i.Image,
		Quantity:  i.Quantity,
	}
}
