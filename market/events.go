package market

import (
	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

// Event types published by the market engine.
const (
	TypeListingCreated   event.Type = "market.listing_created"
	TypeListingUpdated   event.Type = "market.listing_updated"
	TypeListingCancelled event.Type = "market.listing_cancelled"
	TypeSharesPurchased  event.Type = "market.shares_purchased"
)

// ListingCreated is the payload of a TypeListingCreated event.
type ListingCreated struct {
	ListingID     uint64
	Seller        ledger.Address
	ChannelID     uint64
	Amount        uint64
	PricePerShare uint64
}

// ListingUpdated is the payload of a TypeListingUpdated event.
type ListingUpdated struct {
	ListingID     uint64
	Amount        uint64
	PricePerShare uint64
}

// ListingCancelled is the payload of a TypeListingCancelled event.
type ListingCancelled struct {
	ListingID      uint64
	ReturnedShares uint64
}

// SharesPurchased is the payload of a TypeSharesPurchased event.
type SharesPurchased struct {
	ListingID uint64
	Buyer     ledger.Address
	Seller    ledger.Address
	ChannelID uint64
	Amount    uint64
	Total     uint64
	Fee       uint64
	Refund    uint64
}
