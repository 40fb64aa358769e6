package bookfeed

import "github.com/shopspring/decimal"

// DefaultAvailability is used when an item carries no g:availability.
const DefaultAvailability = "unknown"

// Item is one product extracted from the feed. Text fields are trimmed and
// empty when absent; Price is never negative.
type Item struct {
	ID           string
	Title        string
	ImageLink    string
	Link         string
	Availability string
	Price        decimal.Decimal
}
