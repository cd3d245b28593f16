package templates

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/listing-console/internal/i18n"
	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/view"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	bundle, err := i18n.Default()
	require.NoError(t, err)
	r, err := New(bundle)
	require.NoError(t, err)
	return r
}

func renderDoc(t *testing.T, r *Renderer, lang, name string, data any) *goquery.Document {
	t.Helper()
	c, err := r.Component(lang, name, data)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestNewRequiresBundle(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}

func TestComponentUnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := newRenderer(t).Component("ja", "missing", nil)
	require.Error(t, err)
}

func TestComponentTranslatesPerLanguage(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	ja := renderDoc(t, r, "ja", "health", Health{Healthy: true})
	en := renderDoc(t, r, "en", "health", Health{Healthy: true})

	require.Equal(t, r.Bundle().T("ja", "health.ok"), ja.Find("#health").Text())
	require.Equal(t, r.Bundle().T("en", "health.ok"), en.Find("#health").Text())
	require.NotEqual(t, ja.Find("#health").Text(), en.Find("#health").Text())
}

func TestProductEscapesUntrustedText(t *testing.T) {
	t.Parallel()

	pv := view.BuildProductView(listing.ProductData{
		ASIN:        "B000000001",
		Title:       `<script>alert(1)</script>`,
		Description: "line one\n<b>bold</b>",
		Features:    []string{"<i>x</i>"},
	})
	var buf bytes.Buffer
	c, err := newRenderer(t).Component("ja", "product", pv)
	require.NoError(t, err)
	require.NoError(t, c.Render(context.Background(), &buf))

	html := buf.String()
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "&lt;script&gt;")
	require.NotContains(t, html, "<b>bold</b>")
	require.NotContains(t, html, "<i>x</i>")
}

func TestEditPanelSelectsCategory(t *testing.T) {
	t.Parallel()

	form := view.EditForm{Title: "Lamp", Category: "2", Stock: "999"}
	doc := renderDoc(t, newRenderer(t), "ja", "edit", EditPanel{
		Form:       form,
		CharCount:  form.CharCount(),
		Categories: view.CategoryOptions([]listing.Category{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}}, "pick", form.Category),
		Restorable: true,
	})

	require.Equal(t, "2", doc.Find("#edit-category option[selected]").AttrOr("value", ""))
	require.Equal(t, 1, doc.Find(".restore-banner").Length())
	require.Equal(t, "Lamp", doc.Find("#edit-title").AttrOr("value", ""))
}

func TestResultsCounts(t *testing.T) {
	t.Parallel()

	summary := view.BuildResultsView(
		listing.ResultItem{Status: listing.StatusSuccess, ASIN: "B000000001"},
		listing.ResultItem{Status: listing.StatusError, Message: "boom"},
		listing.ResultItem{Status: "pending"},
	)
	doc := renderDoc(t, newRenderer(t), "ja", "results", summary)

	require.Equal(t, "1", doc.Find(`[data-stat="success"]`).Text())
	require.Equal(t, "1", doc.Find(`[data-stat="failed"]`).Text())
	require.Equal(t, "3", doc.Find(`[data-stat="total"]`).Text())
	require.Equal(t, "商品 2", doc.Find(".result-item h4").Eq(1).Text())
	require.Equal(t, "boom", doc.Find(".result-message").Text())
}

func TestRenderPartsConcatenatesWithStatus(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := r.RenderParts(rr, req, http.StatusAccepted, "ja",
		Part{Name: "health", Data: Health{}},
		Part{Name: "toast_oob", Data: Toasts{Items: []view.Toast{view.NewToast(view.ToastInfo, "hello")}}},
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.True(t, doc.Find("#health").HasClass("health-ng"))
	require.Equal(t, "innerHTML", doc.Find("#toasts").AttrOr("hx-swap-oob", ""))
	require.Contains(t, doc.Find(".message-toast").Text(), "hello")
}

func TestRenderPartsUnknownTemplateWritesNothing(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	err := newRenderer(t).RenderParts(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "ja", Part{Name: "nope"})
	require.Error(t, err)
	require.Zero(t, rr.Body.Len())
}
