package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock statuses as they appear in the product feed.
const (
	StockInStock    = "in stock"
	StockOutOfStock = "out of stock"
)

// Book is a catalog record. Title is the join key against the product feed;
// code, title, image/product URL, stock status and sale price are overwritten
// by reconciliation, everything else is owned by the dashboard.
type Book struct {
	ID                 string              `db:"id" json:"id"`
	Code               string              `db:"code" json:"code"`
	Title              string              `db:"title" json:"title"`
	ImageURL           *string             `db:"image_url" json:"imageUrl,omitempty"`
	StoragePath        *string             `db:"storage_path" json:"storagePath,omitempty"`
	ProductURL         *string             `db:"product_url" json:"productUrl,omitempty"`
	StockStatus        *string             `db:"stock_status" json:"stockStatus,omitempty"`
	SalePrice          decimal.NullDecimal `db:"sale_price" json:"salePrice"`
	Published          bool                `db:"published" json:"published"`
	PublishedAt        *time.Time          `db:"published_at" json:"publishedAt,omitempty"`
	AutoPublishEnabled bool                `db:"auto_publish_enabled" json:"autoPublishEnabled"`
	ScheduledPublishAt *time.Time          `db:"scheduled_publish_at" json:"scheduledPublishAt,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updatedAt"`
}

// BookFeedUpdate carries the fields reconciliation copies from a matched feed item.
type BookFeedUpdate struct {
	Code        string
	Title       string
	ImageURL    string
	ProductURL  string
	StockStatus string
	SalePrice   decimal.Decimal
}

// BookSchedule is the dashboard's auto-publish setting for one book.
type BookSchedule struct {
	AutoPublishEnabled bool       `json:"autoPublishEnabled"`
	ScheduledAt        *time.Time `json:"scheduledAt"`
}
