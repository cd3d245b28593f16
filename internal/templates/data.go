package templates

import (
	"html/template"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/view"
)

// IndexPage is the full console page.
type IndexPage struct {
	Product *view.ProductView
	History []HistoryRow
	APIURL  string
}

// HistoryRow is one rendered history entry.
type HistoryRow struct {
	ASIN  string
	Title string
	When  string
}

// EditPanel is the edit form fragment.
type EditPanel struct {
	Form       view.EditForm
	CharCount  view.CharCount
	Categories []view.Option
	Restorable bool
}

// SettingsModal is the settings dialog.
type SettingsModal struct {
	Settings  listing.Settings
	LogLevels []view.Option
}

// HelpModal is the help dialog.
type HelpModal struct {
	Content template.HTML
}

// MainImage is the swappable main product image.
type MainImage struct {
	URL   string
	Alt   string
	Index int
}

// Health is the backend status indicator.
type Health struct {
	Healthy bool
}

// Toasts is a batch of notifications rendered out of band.
type Toasts struct {
	Items []view.Toast
}
