package view_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/view"
)

func TestBuildProductView(t *testing.T) {
	t.Parallel()

	p := listing.ProductData{
		ASIN:          "B08N5WRWNW",
		Title:         "Echo Dot",
		Price:         7800,
		OriginalPrice: 6000,
		MarkupRate:    1.3,
		Images:        []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		Brand:         "Amazon",
		Model:         "D1",
		Stock:         5,
		Rating:        4.5,
		ReviewsCount:  120,
		Features:      []string{"Compact", " "},
		Keywords:      "speaker, alexa,,",
		Availability:  true,
		Description:   "Line one\nline two\n\n<script>x</script>",
	}
	v := view.BuildProductView(p)

	require.Equal(t, "1", v.MainImage)
	require.Len(t, v.Thumbnails, view.MaxThumbnails)
	require.True(t, v.Thumbnails[0].Active)
	require.False(t, v.Thumbnails[1].Active)
	require.Equal(t, 2, v.MoreImages)
	require.Equal(t, "¥7,800", v.Price)
	require.Equal(t, "¥6,000", v.OriginalPrice)
	require.Equal(t, "+30%", v.Markup)
	require.True(t, v.HasRating)
	require.Equal(t, "4.5/5.0 (120)", v.RatingText)
	require.Equal(t, []string{"Compact"}, v.Features)
	require.Equal(t, []string{"speaker", "alexa"}, v.Keywords)

	labels := make([]string, 0, len(v.Details))
	for _, d := range v.Details {
		labels = append(labels, d.LabelKey)
	}
	require.Equal(t, []string{"product.asin", "product.model", "product.stock"}, labels)

	require.True(t, v.HasDescription)
	require.Equal(t, "<p>Line one<br>line two</p><p>&lt;script&gt;x&lt;/script&gt;</p>", string(v.Description))
}

func TestBuildProductViewSparse(t *testing.T) {
	t.Parallel()

	v := view.BuildProductView(listing.ProductData{ASIN: "B000000001", Images: []string{"only.jpg"}})
	require.Equal(t, "only.jpg", v.MainImage)
	require.Empty(t, v.Thumbnails, "single image renders no strip")
	require.False(t, v.HasRating)
	require.False(t, v.HasDescription)
	require.Empty(t, v.Features)
	require.Empty(t, v.Keywords)
	require.Empty(t, v.Markup)

	v = view.BuildProductView(listing.ProductData{})
	require.Equal(t, view.PlaceholderImage, v.MainImage)
}

func TestStarRating(t *testing.T) {
	t.Parallel()

	count := func(stars []view.Star, want view.Star) int {
		n := 0
		for _, s := range stars {
			if s == want {
				n++
			}
		}
		return n
	}

	tests := []struct {
		rating            float64
		full, half, empty int
	}{
		{rating: 4.5, full: 4, half: 1, empty: 0},
		{rating: 3.4, full: 3, half: 0, empty: 2},
		{rating: 0, full: 0, half: 0, empty: 5},
		{rating: 5, full: 5, half: 0, empty: 0},
		{rating: 7, full: 5, half: 0, empty: 0},
	}
	for _, tc := range tests {
		stars := view.StarRating(tc.rating)
		require.Len(t, stars, 5)
		require.Equal(t, tc.full, count(stars, view.StarFull), "rating %v", tc.rating)
		require.Equal(t, tc.half, count(stars, view.StarHalf), "rating %v", tc.rating)
		require.Equal(t, tc.empty, count(stars, view.StarEmpty), "rating %v", tc.rating)
	}
}

func TestEditFormValidate(t *testing.T) {
	t.Parallel()

	err := view.EditForm{Title: "ab", Price: "100"}.Validate()
	require.NotNil(t, err)
	require.Equal(t, view.FieldTitle, err.Field)

	err = view.EditForm{Title: "abc", Price: "0"}.Validate()
	require.NotNil(t, err)
	require.Equal(t, view.FieldPrice, err.Field)

	err = view.EditForm{Title: "abc", Price: "abc"}.Validate()
	require.NotNil(t, err)
	require.Equal(t, view.FieldPrice, err.Field)

	for _, price := range []string{"NaN", "Inf", "+Infinity", "-inf", "1e400"} {
		err = view.EditForm{Title: "abc", Price: price}.Validate()
		require.NotNil(t, err, price)
		require.Equal(t, view.FieldPrice, err.Field, price)
	}

	require.Nil(t, view.EditForm{Title: "abc", Price: "1"}.Validate())
	require.Nil(t, view.EditForm{Title: "商品名", Price: "980.5"}.Validate())
}

func TestPopulateAndApplyEditForm(t *testing.T) {
	t.Parallel()

	p := listing.ProductData{ASIN: "B000000001", Title: "Lamp", Images: []string{"a"}, Brand: "Acme"}
	form := view.PopulateEditForm(p)
	require.Equal(t, "", form.Price)
	require.Equal(t, "999", form.Stock)

	values := url.Values{}
	values.Set(view.FieldTitle, "  Desk lamp ")
	values.Set(view.FieldPrice, "1980")
	values.Set(view.FieldDescription, " bright ")
	values.Set(view.FieldCategory, "100804")
	values.Set(view.FieldStock, "12")
	values.Set(view.FieldKeywords, " lamp,desk ")

	edited := view.ParseEditForm(values).Apply(p)
	require.Equal(t, "Desk lamp", edited.Title)
	require.Equal(t, 1980.0, edited.Price)
	require.Equal(t, "bright", edited.Description)
	require.Equal(t, "100804", edited.CategoryID)
	require.Equal(t, 12, edited.Stock)
	require.Equal(t, "lamp,desk", edited.Keywords)
	require.Equal(t, "Acme", edited.Brand, "untouched fields are kept")
	require.Equal(t, "Lamp", p.Title, "current product is not modified")
}

func TestCharCount(t *testing.T) {
	t.Parallel()

	cc := view.EditForm{Title: strings.Repeat("あ", 101)}.CharCount()
	require.Equal(t, 101, cc.Count)
	require.Equal(t, view.TitleLimit, cc.Limit)
	require.True(t, cc.Warning)
	require.False(t, view.EditForm{Title: strings.Repeat("a", 100)}.CharCount().Warning)
}

func TestBuildResultsView(t *testing.T) {
	t.Parallel()

	v := view.BuildResultsView(
		listing.ResultItem{Status: listing.StatusSuccess, ASIN: "B000000001"},
		listing.ResultItem{Status: listing.StatusRegistered, Data: &listing.ProductData{Title: strings.Repeat("x", 90), Price: 1200}},
		listing.ResultItem{Status: listing.StatusFailed, Message: "not found"},
	)
	require.Equal(t, 2, v.Success)
	require.Equal(t, 1, v.Failed)
	require.Equal(t, 3, v.Total)
	require.Equal(t, "B000000001", v.Items[0].Heading)
	require.Equal(t, "商品 2", v.Items[1].Heading)
	require.Len(t, []rune(v.Items[1].Title), 80)
	require.True(t, strings.HasSuffix(v.Items[1].Title, "..."))
	require.Equal(t, "¥1,200", v.Items[1].Price)
	require.False(t, v.Items[2].Succeeded)
}

func TestCategoryOptions(t *testing.T) {
	t.Parallel()

	opts := view.CategoryOptions([]listing.Category{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}, {ID: "2", Name: "Dup"}}, "Choose...", "2")
	require.Len(t, opts, 4)
	require.Equal(t, "", opts[0].Value)
	require.False(t, opts[0].Selected)
	require.True(t, opts[2].Selected)
	require.False(t, opts[3].Selected)

	opts = view.CategoryOptions(nil, "Choose...", "")
	require.Len(t, opts, 1)
	require.True(t, opts[0].Selected)
}

func TestBuildPreviewDocument(t *testing.T) {
	t.Parallel()

	doc := view.BuildPreviewDocument(listing.ProductData{
		Title:  "Lamp",
		Price:  1000,
		Images: []string{"0", "1", "2", "3", "4", "5", "6", "7"},
	})
	require.Equal(t, "0", doc.MainImage)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, doc.Thumbnails)
	require.Equal(t, "¥1,000", doc.Price)
	require.False(t, doc.HasDescription)
}

func TestNewToastIDsAreUnique(t *testing.T) {
	t.Parallel()

	a := view.NewToast(view.ToastError, "x")
	b := view.NewToast(view.ToastError, "x")
	require.Len(t, a.ID, 26)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, "exclamation-triangle", a.Icon())
}

func TestHelpHTML(t *testing.T) {
	t.Parallel()

	ja, err := view.HelpHTML("ja")
	require.NoError(t, err)
	require.Contains(t, string(ja), "<h4>")
	require.Contains(t, string(ja), "<code>amazon.co.jp/dp/B08XXXXXXX/</code>")

	fallback, err := view.HelpHTML("fr")
	require.NoError(t, err)
	require.Equal(t, ja, fallback)
}
