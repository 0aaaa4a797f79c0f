package revenue

import (
	"github.com/knowscroll/libknowscroll-go/asset"
	"github.com/knowscroll/libknowscroll-go/event"
	"github.com/knowscroll/libknowscroll-go/ledger"
)

// Event types published by the revenue engine.
const (
	TypeRevenueAdded   event.Type = "revenue.added"
	TypeRevenueClaimed event.Type = "revenue.claimed"
)

// RevenueAdded is the payload of a TypeRevenueAdded event.
type RevenueAdded struct {
	ChannelID uint64
	Asset     asset.ID
	Payer     ledger.Address
	Gross     uint64
	Fee       uint64
	Net       uint64
}

// RevenueClaimed is the payload of a TypeRevenueClaimed event.
type RevenueClaimed struct {
	ChannelID uint64
	Asset     asset.ID
	Holder    ledger.Address
	Amount    uint64
}
