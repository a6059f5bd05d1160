package extract

import (
	"math"
	"regexp"
	"strings"

	"afipscan/pkg/models"
)

// Line item row shapes, tried in order of specificity. The full AFIP table
// row carries code, unit, and discount columns; the other shapes cover the
// degraded renderings OCR produces when column alignment is lost.
var (
	// code description qty unit unit-price disc% disc-amount subtotal
	afipRowPattern = regexp.MustCompile(
		`(?m)^\s*(\w+)\s+([^\n\r]+?)\s+(\d+[.,]\d+)\s+(\w+)\s+([\d.,]+)\s+(\d+[.,]\d+)\s+([\d.,]+)\s+([\d.,]+)\s*$`)

	// description | qty | unit-price | subtotal
	pipeRowPattern = regexp.MustCompile(
		`(?m)^\s*([^|\n\r]+?)\s*\|\s*([\d.,]+)\s*\|\s*\$?\s*([\d.,]+)\s*\|\s*\$?\s*([\d.,]+)\s*$`)

	// qty description unit-price subtotal
	plainRowPattern = regexp.MustCompile(
		`(?m)^\s*(\d+[.,]?\d*)\s+(\D[^\n\r]{4,60}?)\s+\$?\s*([\d.,]+)\s+\$?\s*([\d.,]+)\s*$`)
)

// subtotalTolerance is the relative deviation between a printed subtotal
// and quantity times unit price above which the printed figure is replaced
// by the computed one.
const subtotalTolerance = 0.01

// LineItems extracts product rows from OCR text. Rows matched by more than
// one shape are deduplicated on normalized description, keeping the first
// match. A missing or incoherent printed subtotal is replaced by quantity
// times unit price minus discount and tagged as computed, with the observed
// deviation recorded.
func LineItems(text string) []models.LineItem {
	var items []models.LineItem
	seen := make(map[string]bool)

	appendItem := func(item models.LineItem) {
		key := strings.ToLower(strings.Join(strings.Fields(item.Description), " "))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		items = append(items, finishItem(item))
	}

	for _, m := range afipRowPattern.FindAllStringSubmatch(text, -1) {
		qty, err1 := ParseAmount(m[3])
		price, err2 := ParseAmount(m[5])
		discount, err3 := ParseAmount(m[7])
		printed, err4 := ParseAmount(m[8])
		if err1 != nil || err2 != nil {
			continue
		}
		item := models.LineItem{
			Code:        m[1],
			Description: strings.TrimSpace(m[2]),
			Quantity:    qty,
			UnitPrice:   price,
		}
		if err3 == nil {
			item.Discount = discount
		}
		if err4 == nil {
			item.Subtotal = printed
		}
		appendItem(item)
	}

	for _, m := range pipeRowPattern.FindAllStringSubmatch(text, -1) {
		qty, err1 := ParseAmount(m[2])
		price, err2 := ParseAmount(m[3])
		printed, err3 := ParseAmount(m[4])
		if err1 != nil || err2 != nil {
			continue
		}
		item := models.LineItem{
			Description: strings.TrimSpace(m[1]),
			Quantity:    qty,
			UnitPrice:   price,
		}
		if err3 == nil {
			item.Subtotal = printed
		}
		appendItem(item)
	}

	for _, m := range plainRowPattern.FindAllStringSubmatch(text, -1) {
		qty, err1 := ParseAmount(m[1])
		price, err2 := ParseAmount(m[3])
		printed, err3 := ParseAmount(m[4])
		if err1 != nil || err2 != nil || qty == 0 {
			continue
		}
		item := models.LineItem{
			Description: strings.TrimSpace(m[2]),
			Quantity:    qty,
			UnitPrice:   price,
		}
		if err3 == nil {
			item.Subtotal = printed
		}
		appendItem(item)
	}

	return items
}

// finishItem reconciles the printed subtotal against quantity times unit
// price minus discount.
func finishItem(item models.LineItem) models.LineItem {
	computed := item.Quantity*item.UnitPrice - item.Discount
	if computed < 0 {
		computed = 0
	}

	if item.Subtotal == 0 {
		item.Subtotal = computed
		item.SubtotalSource = models.SourceComputed
		return item
	}

	deviation := math.Abs(computed-item.Subtotal) / item.Subtotal
	item.Deviation = deviation
	if deviation > subtotalTolerance && computed > 0 {
		item.Subtotal = computed
		item.SubtotalSource = models.SourceComputed
	} else {
		item.SubtotalSource = models.SourceGeneralOCR
	}
	return item
}
