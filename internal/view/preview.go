package view

import (
	"html/template"

	"finitefield.org/listing-console/internal/format"
	"finitefield.org/listing-console/internal/listing"
)

const previewExtraImages = 5

// PreviewDocument is the standalone marketplace-style preview page.
type PreviewDocument struct {
	Title          string
	MainImage      string
	Thumbnails     []string
	Price          string
	Brand          string
	Description    template.HTML
	HasDescription bool
	Features       []string
}

// BuildPreviewDocument maps p onto the preview page: the first image plus up to five more.
func BuildPreviewDocument(p listing.ProductData) PreviewDocument {
	doc := PreviewDocument{
		Title:    p.Title,
		Price:    format.Price(p.Price),
		Brand:    p.Brand,
		Features: nonEmpty(p.Features),
	}
	if len(p.Images) > 0 {
		doc.MainImage = p.Images[0]
	}
	if len(p.Images) > 1 {
		end := len(p.Images)
		if end > 1+previewExtraImages {
			end = 1 + previewExtraImages
		}
		doc.Thumbnails = append([]string(nil), p.Images[1:end]...)
	}
	doc.Description, doc.HasDescription = FormatDescription(p.Description)
	return doc
}
