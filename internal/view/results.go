package view

import (
	"strconv"

	"finitefield.org/listing-console/internal/format"
	"finitefield.org/listing-console/internal/listing"
)

const resultTitleLimit = 80

// ResultsView is the summary and item list of a registration or batch run.
type ResultsView struct {
	Success int
	Failed  int
	Total   int
	Items   []ResultItemView
}

// ResultItemView is one rendered result.
type ResultItemView struct {
	Heading   string
	Succeeded bool
	Link      string
	Message   string
	Title     string
	Price     string
	ItemCode  string
}

// BuildResultsView summarises results. Items without an ASIN are headed "商品 N".
func BuildResultsView(results ...listing.ResultItem) ResultsView {
	v := ResultsView{Total: len(results), Items: make([]ResultItemView, 0, len(results))}
	for i, r := range results {
		switch {
		case r.Succeeded():
			v.Success++
		case r.Failed():
			v.Failed++
		}
		item := ResultItemView{
			Heading:   r.ASIN,
			Succeeded: r.Succeeded(),
			Link:      r.ItemURL,
			Message:   r.Message,
			ItemCode:  r.ItemCode,
		}
		if item.Heading == "" {
			item.Heading = "商品 " + strconv.Itoa(i+1)
		}
		if r.Data != nil {
			item.Title = format.Truncate(r.Data.Title, resultTitleLimit)
			if r.Data.Price != 0 {
				item.Price = format.Price(r.Data.Price)
			}
		}
		v.Items = append(v.Items, item)
	}
	return v
}
