package market

import (
	"time"

	"github.com/knowscroll/libknowscroll-go/ledger"
)

// Listing records shares offered for sale under escrow. While Active, the
// engine itself holds Amount shares on the ownership ledger. Listings are
// never physically deleted: a cancelled or fully sold listing stays queryable
// with Active == false, and its id is never reused.
type Listing struct {
	ID            uint64
	Seller        ledger.Address
	ChannelID     uint64
	Amount        uint64 // shares currently escrowed
	PricePerShare uint64 // in native base units
	ListedAt      time.Time
	Active        bool
}
