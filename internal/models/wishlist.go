package models

import "time"

type WishlistItem struct {
	UserID    string    `json:"user"`
	ProductID string    `json:"product"`
	AddedAt   time.Time `json:"addedAt"`
}

type Wishlist struct {
	UserID   string    `json:"user"`
	Products []Product `json:"products"`
}
