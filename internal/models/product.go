package models

import "time"

type ProductImage struct {
	URL string `json:"url"`
}

type Product struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	CategoryID  string         `json:"category"`
	Images      []ProductImage `json:"images"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// FirstImage returns the URL of the cover image, or "" when there is none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

type NewProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       *int    `json:"stock" binding:"required,min=0"`
	CategoryID  string  `json:"category" binding:"required"`
	ImageURL    string  `json:"imageUrl"`
}
