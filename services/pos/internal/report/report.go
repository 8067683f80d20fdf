// Package report aggregates paid bills into a daily sales summary.
package report

import (
	"sort"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/paymentmethod"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TopItemsLimit = 5

type SalesReport struct {
	Date              string                     `json:"date"`
	TotalSales        decimal.Decimal            `json:"total_sales"`
	TotalOrders       int                        `json:"total_orders"`
	AverageOrderValue decimal.Decimal            `json:"average_order_value"`
	ByPaymentMethod   map[string]decimal.Decimal `json:"by_payment_method"`
	ByOrderType       map[string]decimal.Decimal `json:"by_order_type"`
	TopItems          []ItemSales                `json:"top_items"`
}

type ItemSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// DayRange returns [start, end) of the calendar day of date in its location.
func DayRange(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// Build summarizes the bills paid on date. Orders supply the items for the
// top sellers; bills whose order is missing still count toward the totals.
// Split payments are attributed to each part's method.
func Build(date time.Time, bills []billing.Bill, orders map[uuid.UUID]order.Order) SalesReport {
	from, to := DayRange(date)

	r := SalesReport{
		Date:              from.Format("2006-01-02"),
		TotalSales:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ByPaymentMethod:   make(map[string]decimal.Decimal),
		ByOrderType:       make(map[string]decimal.Decimal),
		TopItems:          []ItemSales{},
	}

	items := make(map[string]*ItemSales)
	for _, b := range bills {
		if b.PaidAt.Before(from) || !b.PaidAt.Before(to) {
			continue
		}

		r.TotalOrders++
		r.TotalSales = r.TotalSales.Add(b.Total)
		r.ByOrderType[b.OrderType] = r.ByOrderType[b.OrderType].Add(b.Total)

		if b.PaymentMethod == paymentmethod.Methods.Split.Code() {
			for _, s := range b.SplitPayments {
				r.ByPaymentMethod[s.Method] = r.ByPaymentMethod[s.Method].Add(s.Amount)
			}
		} else {
			r.ByPaymentMethod[b.PaymentMethod] = r.ByPaymentMethod[b.PaymentMethod].Add(b.Total)
		}

		o, ok := orders[b.OrderID]
		if !ok {
			continue
		}
		for _, it := range o.Items {
			agg, ok := items[it.Name]
			if !ok {
				agg = &ItemSales{Name: it.Name, Revenue: decimal.Zero}
				items[it.Name] = agg
			}
			agg.Quantity += it.Quantity
			agg.Revenue = agg.Revenue.Add(it.Amount())
		}
	}

	if r.TotalOrders > 0 {
		r.AverageOrderValue = r.TotalSales.
			Div(decimal.NewFromInt(int64(r.TotalOrders))).
			Round(pricing.MinorUnits)
	}

	for _, agg := range items {
		r.TopItems = append(r.TopItems, *agg)
	}
	sort.Slice(r.TopItems, func(i, j int) bool {
		a, b := r.TopItems[i], r.TopItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(r.TopItems) > TopItemsLimit {
		r.TopItems = r.TopItems[:TopItemsLimit]
	}

	return r
}
