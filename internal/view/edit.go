package view

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"finitefield.org/listing-console/internal/listing"
)

// Form control names, shared with the templates.
const (
	FieldTitle       = "edit-title"
	FieldPrice       = "edit-price"
	FieldDescription = "edit-description"
	FieldCategory    = "edit-category"
	FieldStock       = "edit-stock"
	FieldKeywords    = "edit-keywords"
)

const (
	// TitleLimit is the marketplace title length shown in the counter.
	TitleLimit = 127
	// TitleWarnAt is the length above which the counter turns into a warning.
	TitleWarnAt = 100
	// DefaultStock prefills the stock control when the product has none.
	DefaultStock = 999

	minTitleLength = 3
)

// EditForm holds raw control values of the edit form.
type EditForm struct {
	Title       string
	Price       string
	Description string
	Category    string
	Stock       string
	Keywords    string
}

// FieldError names the control that failed validation and the i18n key of the message.
// Detail, when set, is appended to the rendered message.
type FieldError struct {
	Field      string
	MessageKey string
	Detail     string
}

func (e *FieldError) Error() string {
	if e.Detail != "" {
		return "view: invalid " + e.Field + ": " + e.MessageKey + " (" + e.Detail + ")"
	}
	return "view: invalid " + e.Field + ": " + e.MessageKey
}

// CharCount is the title length counter.
type CharCount struct {
	Count   int
	Limit   int
	Warning bool
}

// PopulateEditForm prefills the form from p.
func PopulateEditForm(p listing.ProductData) EditForm {
	form := EditForm{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.CategoryID,
		Keywords:    p.Keywords,
		Stock:       strconv.Itoa(DefaultStock),
	}
	if p.Price != 0 {
		form.Price = strconv.FormatFloat(p.Price, 'f', -1, 64)
	}
	if p.Stock != 0 {
		form.Stock = strconv.Itoa(p.Stock)
	}
	return form
}

// ParseEditForm reads the edit form controls from submitted values.
func ParseEditForm(values url.Values) EditForm {
	return EditForm{
		Title:       values.Get(FieldTitle),
		Price:       values.Get(FieldPrice),
		Description: values.Get(FieldDescription),
		Category:    values.Get(FieldCategory),
		Stock:       values.Get(FieldStock),
		Keywords:    values.Get(FieldKeywords),
	}
}

// Validate checks the title and price. The title must have at least three characters and the
// price must be a positive number.
func (f EditForm) Validate() *FieldError {
	if utf8.RuneCountInString(strings.TrimSpace(f.Title)) < minTitleLength {
		return &FieldError{Field: FieldTitle, MessageKey: "validation.title"}
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return &FieldError{Field: FieldPrice, MessageKey: "validation.price"}
	}
	return nil
}

// Apply merges the edited values over a copy of current. Unparseable numbers become zero.
func (f EditForm) Apply(current listing.ProductData) listing.ProductData {
	out := current.Clone()
	out.Title = strings.TrimSpace(f.Title)
	out.Description = strings.TrimSpace(f.Description)
	out.CategoryID = f.Category
	out.Keywords = strings.TrimSpace(f.Keywords)
	out.Price, _ = strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	out.Stock, _ = strconv.Atoi(strings.TrimSpace(f.Stock))
	return out
}

// CharCount returns the title counter for the current value.
func (f EditForm) CharCount() CharCount {
	n := utf8.RuneCountInString(f.Title)
	return CharCount{Count: n, Limit: TitleLimit, Warning: n > TitleWarnAt}
}

// Snapshot converts the form into its auto-save representation.
func (f EditForm) Snapshot() listing.SnapshotForm {
	return listing.SnapshotForm{
		Title:       f.Title,
		Price:       f.Price,
		Description: f.Description,
		Category:    f.Category,
		Stock:       f.Stock,
		Keywords:    f.Keywords,
	}
}

// EditFormFromSnapshot restores a form from an auto-save snapshot.
func EditFormFromSnapshot(s listing.SnapshotForm) EditForm {
	return EditForm{
		Title:       s.Title,
		Price:       s.Price,
		Description: s.Description,
		Category:    s.Category,
		Stock:       s.Stock,
		Keywords:    s.Keywords,
	}
}
