package listing

// ProductData is the product record produced by the backend from an Amazon listing and
// edited locally before registration.
type ProductData struct {
	ASIN          string   `json:"asin"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	MarkupRate    float64  `json:"markup_rate"`
	Images        []string `json:"images"`
	Brand         string   `json:"brand"`
	Model         string   `json:"model"`
	Manufacturer  string   `json:"manufacturer"`
	Weight        string   `json:"weight"`
	Stock         int      `json:"stock"`
	Rating        float64  `json:"rating"`
	ReviewsCount  int      `json:"reviews_count"`
	Features      []string `json:"features"`
	Keywords      string   `json:"keywords"`
	CategoryID    string   `json:"categoryId"`
	Availability  bool     `json:"availability"`
}

// Clone returns a copy that shares no slices with p.
func (p ProductData) Clone() ProductData {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	if p.Features != nil {
		out.Features = append([]string(nil), p.Features...)
	}
	return out
}

// Category is a marketplace category offered in the edit form.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HistoryEntry records a processed product. Timestamp is in Unix milliseconds.
type HistoryEntry struct {
	ASIN      string `json:"asin"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// AutoSaveSnapshot is the persisted copy of an in-progress edit.
type AutoSaveSnapshot struct {
	ASIN      string       `json:"asin"`
	FormData  SnapshotForm `json:"formData"`
	Timestamp int64        `json:"timestamp"`
}

// SnapshotForm holds raw control values, unparsed.
type SnapshotForm struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Stock       string `json:"stock"`
	Keywords    string `json:"keywords"`
}
