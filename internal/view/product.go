// Package view maps listing data onto render-agnostic view models. Nothing in this package
// touches HTTP or templates; internal/templates binds the models to HTML.
package view

import (
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"finitefield.org/listing-console/internal/format"
	"finitefield.org/listing-console/internal/listing"
)

const (
	// PlaceholderImage is shown when a product has no images.
	PlaceholderImage = "/static/images/no-image.png"
	// MaxThumbnails is the number of thumbnails rendered before collapsing into a counter.
	MaxThumbnails = 6
)

var descriptionPolicy = bluemonday.NewPolicy().AllowElements("p", "br")

// Star is one glyph of a five star rating.
type Star string

const (
	StarFull  Star = "full"
	StarHalf  Star = "half"
	StarEmpty Star = "empty"
)

// Thumbnail is one entry of the image strip.
type Thumbnail struct {
	Index  int
	URL    string
	Active bool
}

// DetailRow is a labelled product attribute. LabelKey is an i18n key.
type DetailRow struct {
	LabelKey string
	Value    string
}

// ProductView is everything the product panel renders.
type ProductView struct {
	ASIN           string
	Title          string
	MainImage      string
	Thumbnails     []Thumbnail
	MoreImages     int
	Brand          string
	InStock        bool
	OriginalPrice  string
	Price          string
	Markup         string
	Details        []DetailRow
	Stars          []Star
	RatingText     string
	HasRating      bool
	Description    template.HTML
	HasDescription bool
	Features       []string
	Keywords       []string
}

// BuildProductView maps p onto the product panel.
func BuildProductView(p listing.ProductData) ProductView {
	v := ProductView{
		ASIN:          p.ASIN,
		Title:         p.Title,
		MainImage:     PlaceholderImage,
		Brand:         p.Brand,
		InStock:       p.Availability,
		OriginalPrice: format.Price(p.OriginalPrice),
		Price:         format.Price(p.Price),
		Markup:        Markup(p.MarkupRate),
		Features:      nonEmpty(p.Features),
		Keywords:      SplitKeywords(p.Keywords),
	}
	if len(p.Images) > 0 && p.Images[0] != "" {
		v.MainImage = p.Images[0]
	}
	v.Thumbnails, v.MoreImages = Thumbnails(p.Images)

	v.Details = append(v.Details, DetailRow{LabelKey: "product.asin", Value: p.ASIN})
	if p.Model != "" {
		v.Details = append(v.Details, DetailRow{LabelKey: "product.model", Value: p.Model})
	}
	if p.Manufacturer != "" {
		v.Details = append(v.Details, DetailRow{LabelKey: "product.manufacturer", Value: p.Manufacturer})
	}
	if p.Weight != "" {
		v.Details = append(v.Details, DetailRow{LabelKey: "product.weight", Value: p.Weight})
	}
	v.Details = append(v.Details, DetailRow{LabelKey: "product.stock", Value: strconv.Itoa(p.Stock)})

	if p.Rating != 0 && p.ReviewsCount != 0 {
		v.HasRating = true
		v.Stars = StarRating(p.Rating)
		v.RatingText = strconv.FormatFloat(p.Rating, 'f', -1, 64) + "/5.0 (" + strconv.Itoa(p.ReviewsCount) + ")"
	}
	v.Description, v.HasDescription = FormatDescription(p.Description)
	return v
}

// Thumbnails returns the strip for images and the number of images beyond it.
// A single image produces no strip.
func Thumbnails(images []string) ([]Thumbnail, int) {
	if len(images) <= 1 {
		return nil, 0
	}
	n := len(images)
	if n > MaxThumbnails {
		n = MaxThumbnails
	}
	thumbs := make([]Thumbnail, 0, n)
	for i := 0; i < n; i++ {
		thumbs = append(thumbs, Thumbnail{Index: i, URL: images[i], Active: i == 0})
	}
	return thumbs, len(images) - n
}

// StarRating renders rating (0-5) as five stars. A fraction of .5 or more adds a half star.
func StarRating(rating float64) []Star {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5
	stars := make([]Star, 0, 5)
	for i := 0; i < full; i++ {
		stars = append(stars, StarFull)
	}
	if half {
		stars = append(stars, StarHalf)
	}
	for len(stars) < 5 {
		stars = append(stars, StarEmpty)
	}
	return stars
}

// Markup formats a price multiplier as a percentage surcharge, e.g. 1.3 => "+30%".
// A zero rate means the backend did not report one.
func Markup(rate float64) string {
	if rate == 0 {
		return ""
	}
	return "+" + strconv.Itoa(int(math.Round((rate-1)*100))) + "%"
}

// FormatDescription splits text into paragraphs on blank lines and turns single newlines into
// line breaks. It reports false when nothing remains.
func FormatDescription(text string) (template.HTML, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	if b.Len() == 0 {
		return "", false
	}
	return template.HTML(descriptionPolicy.Sanitize(b.String())), true
}

// SplitKeywords splits a comma separated keyword list, dropping blanks.
func SplitKeywords(keywords string) []string {
	var out []string
	for _, kw := range strings.Split(keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
