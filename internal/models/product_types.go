package models

import "time"

// Product is the model for the 'products' table.
// Unit is the Vietnamese sales unit label ("Cái", "Cuộn", "Cây (4m)"...).
type Product struct {
	ID          int64     `json:"id" db:"id"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Unit        string    `json:"unit" db:"unit"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (not in the products table, populated manually)
	Category *Category        `json:"category,omitempty" db:"-"`
	Images   []ProductImage   `json:"images" db:"-"`
	Variants []ProductVariant `json:"variants" db:"-"`
}

// ProductVariant is the model for the 'product_variants' table.
// Stock is the single contended field in the whole system: it is only ever
// decremented inside the order-approval transaction.
type ProductVariant struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	SKU       string    `json:"sku" db:"sku"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductImage is the model for the 'product_images' table
type ProductImage struct {
	ID        int64  `json:"id" db:"id"`
	ProductID int64  `json:"productId" db:"product_id"`
	URL       string `json:"url" db:"url"`
}
