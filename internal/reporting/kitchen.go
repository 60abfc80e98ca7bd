package reporting

import (
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
)

// KitchenTicket groups the rows of one order still being made.
type KitchenTicket struct {
	OrderNumber  int
	CustomerName string
	PlacedAt     time.Time
	Lines        []models.PlacedOrder
	PrepTime     time.Duration
}

// KitchenQueue groups Being Processed rows by order number, oldest order first.
func KitchenQueue(cat *catalog.Catalog, rows []models.PlacedOrder) []KitchenTicket {
	var tickets []KitchenTicket
	index := make(map[int]int)
	for _, r := range rows {
		if r.Status != models.OrderStatusBeingProcessed {
			continue
		}
		i, ok := index[r.OrderNumber]
		if !ok {
			i = len(tickets)
			index[r.OrderNumber] = i
			tickets = append(tickets, KitchenTicket{OrderNumber: r.OrderNumber, CustomerName: r.CustomerName, PlacedAt: r.Timestamp})
		}
		tickets[i].Lines = append(tickets[i].Lines, r)
		tickets[i].PrepTime += cat.PrepTime(r.Size, len(r.AddOnList()))
	}
	return tickets
}

// EstimateWait is the prep time of every row still in the kitchen plus the
// prep time of the new cart.
func EstimateWait(cat *catalog.Catalog, rows []models.PlacedOrder, cart []models.LineItem) time.Duration {
	var wait time.Duration
	for _, r := range rows {
		if r.Status == models.OrderStatusBeingProcessed {
			wait += cat.PrepTime(r.Size, len(r.AddOnList()))
		}
	}
	for _, l := range cart {
		wait += cat.PrepTime(l.Size, len(l.AddOns))
	}
	return wait
}
