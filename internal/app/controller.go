// Package app owns the console state: the current product, the in-flight fetch and the
// user's settings. HTTP handlers drive it; it never renders anything.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/observability"
	"finitefield.org/listing-console/internal/view"
	"finitefield.org/listing-console/internal/workspace"
)

// Form control names validated by the controller outside the edit form.
const (
	FieldASIN     = "asin-input"
	FieldBatch    = "batch-asins"
	FieldItemURL  = "item-url"
	FieldSettings = "api-url-setting"
)

var (
	// ErrNoProduct is returned when an operation needs a current product and there is none.
	ErrNoProduct = errors.New("app: no product loaded")
	// ErrSuperseded is returned by a fetch whose result was overtaken by a newer fetch or a reset.
	ErrSuperseded = errors.New("app: fetch superseded by a newer request")
	// ErrNoSnapshot is returned when there is no recent auto-saved form for the current product.
	ErrNoSnapshot = errors.New("app: no restorable snapshot")
	// ErrImageIndex is returned for an image index outside the current product's images.
	ErrImageIndex = errors.New("app: image index out of range")
)

// Backend is the subset of the backend client the controller uses.
type Backend interface {
	FetchAmazonProduct(ctx context.Context, asin string) (listing.ProductData, error)
	RegisterToRakuten(ctx context.Context, product listing.ProductData) ([]listing.ResultItem, error)
	UpdateRakutenProduct(ctx context.Context, itemURL string, product listing.ProductData) ([]listing.ResultItem, error)
	GetRakutenCategories(ctx context.Context) []listing.Category
	BatchProcess(ctx context.Context, asins []string) ([]listing.ResultItem, error)
	HealthCheck(ctx context.Context) bool
	BaseURL() string
	SetBaseURL(raw string) error
}

// Dependencies wires a Controller.
type Dependencies struct {
	Backend  Backend
	History  *workspace.History
	Settings *workspace.SettingsRepo
	AutoSave *workspace.AutoSaver
	// Level, when set, follows the saved log level.
	Level  *zap.AtomicLevel
	Logger *zap.Logger
}

// Controller coordinates fetch, edit and registration flows.
type Controller struct {
	backend  Backend
	history  *workspace.History
	settings *workspace.SettingsRepo
	autosave *workspace.AutoSaver
	level    *zap.AtomicLevel
	logger   *zap.Logger

	mu          sync.Mutex
	current     *listing.ProductData
	generation  uint64
	cancelFetch context.CancelFunc
	categories  []listing.Category
	prefs       listing.Settings
}

// New constructs a Controller. Backend, History, Settings and AutoSave are required.
func New(deps Dependencies) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend:  deps.Backend,
		history:  deps.History,
		settings: deps.Settings,
		autosave: deps.AutoSave,
		level:    deps.Level,
		logger:   logger,
		prefs:    deps.Settings.Defaults(),
	}
}

// Init loads saved settings, applies them and fetches the category list once.
func (c *Controller) Init(ctx context.Context) {
	prefs := c.settings.Load(ctx)
	c.apply(prefs)
	categories := c.backend.GetRakutenCategories(ctx)

	c.mu.Lock()
	c.prefs = prefs
	c.categories = categories
	c.mu.Unlock()
	c.logger.Info("console initialised",
		zap.String("api_url", c.backend.BaseURL()),
		zap.Int("categories", len(categories)))
}

// Categories returns the category list loaded by Init.
func (c *Controller) Categories() []listing.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]listing.Category(nil), c.categories...)
}

// FetchProduct loads asin and makes it the current product. A fetch started later cancels
// this one; a response that arrives after being superseded returns ErrSuperseded and leaves
// the current product untouched.
func (c *Controller) FetchProduct(ctx context.Context, asin string) (listing.ProductData, error) {
	if !listing.ValidateASIN(asin) {
		return listing.ProductData{}, &view.FieldError{Field: FieldASIN, MessageKey: "validation.asin"}
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	gen := c.beginFetch(cancel)

	product, err := c.backend.FetchAmazonProduct(fetchCtx, asin)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return listing.ProductData{}, ErrSuperseded
	}
	c.cancelFetch = nil
	if err != nil {
		return listing.ProductData{}, err
	}
	stored := product.Clone()
	c.current = &stored
	observability.FromContext(ctx).Info("product fetched",
		zap.String("asin", product.ASIN),
		zap.Int("images", len(product.Images)))
	return product.Clone(), nil
}

func (c *Controller) beginFetch(cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.cancelFetch = cancel
	return c.generation
}

// supersedeLocked invalidates and cancels any in-flight fetch.
func (c *Controller) supersedeLocked() {
	c.generation++
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// Current returns the current product.
func (c *Controller) Current() (listing.ProductData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return listing.ProductData{}, false
	}
	return c.current.Clone(), true
}

// ImageAt returns image i of the current product.
func (c *Controller) ImageAt(i int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", ErrNoProduct
	}
	if i < 0 || i >= len(c.current.Images) || c.current.Images[i] == "" {
		return "", ErrImageIndex
	}
	return c.current.Images[i], nil
}

// BeginEdit prefills the edit form from the current product and reports whether a recent
// auto-saved form exists for it.
func (c *Controller) BeginEdit(ctx context.Context) (view.EditForm, bool, error) {
	product, ok := c.Current()
	if !ok {
		return view.EditForm{}, false, ErrNoProduct
	}
	_, restorable := c.autosave.Restorable(ctx, product.ASIN)
	return view.PopulateEditForm(product), restorable, nil
}

// RecordInput schedules an auto-save of form when auto-save is enabled and a product is
// loaded. It returns the title counter for the form.
func (c *Controller) RecordInput(form view.EditForm) view.CharCount {
	c.mu.Lock()
	enabled := c.prefs.AutoSave
	var asin string
	if c.current != nil {
		asin = c.current.ASIN
	}
	c.mu.Unlock()

	if enabled && asin != "" {
		c.autosave.Touch(asin, form.Snapshot())
	}
	return form.CharCount()
}

// RestoreSnapshot returns the auto-saved form for the current product.
func (c *Controller) RestoreSnapshot(ctx context.Context) (view.EditForm, error) {
	product, ok := c.Current()
	if !ok {
		return view.EditForm{}, ErrNoProduct
	}
	snapshot, ok := c.autosave.Restorable(ctx, product.ASIN)
	if !ok {
		return view.EditForm{}, ErrNoSnapshot
	}
	return view.EditFormFromSnapshot(snapshot.FormData), nil
}

// Register validates form, merges it over the current product and registers the result.
func (c *Controller) Register(ctx context.Context, form view.EditForm) ([]listing.ResultItem, error) {
	edited, err := c.edited(form)
	if err != nil {
		return nil, err
	}
	results, err := c.backend.RegisterToRakuten(ctx, edited)
	if err != nil {
		return nil, err
	}
	c.commit(ctx, edited, results)
	return results, nil
}

// Update validates form and updates the already registered item at itemURL.
func (c *Controller) Update(ctx context.Context, itemURL string, form view.EditForm) ([]listing.ResultItem, error) {
	itemURL = strings.TrimSpace(itemURL)
	if itemURL == "" {
		return nil, &view.FieldError{Field: FieldItemURL, MessageKey: "validation.item_url"}
	}
	edited, err := c.edited(form)
	if err != nil {
		return nil, err
	}
	results, err := c.backend.UpdateRakutenProduct(ctx, itemURL, edited)
	if err != nil {
		return nil, err
	}
	c.commit(ctx, edited, results)
	return results, nil
}

func (c *Controller) edited(form view.EditForm) (listing.ProductData, error) {
	current, ok := c.Current()
	if !ok {
		return listing.ProductData{}, ErrNoProduct
	}
	if ferr := form.Validate(); ferr != nil {
		return listing.ProductData{}, ferr
	}
	return form.Apply(current), nil
}

// commit keeps the edited product as current and records history once a result succeeded.
func (c *Controller) commit(ctx context.Context, edited listing.ProductData, results []listing.ResultItem) {
	for _, r := range results {
		if !r.Succeeded() {
			continue
		}
		c.mu.Lock()
		if c.current != nil && c.current.ASIN == edited.ASIN {
			stored := edited.Clone()
			c.current = &stored
		}
		c.mu.Unlock()
		c.history.Add(ctx, edited.ASIN, edited.Title)
		return
	}
}

// BatchProcess parses a newline or comma separated ASIN list and processes it in one call.
// Invalid identifiers reject the whole batch.
func (c *Controller) BatchProcess(ctx context.Context, text string) ([]listing.ResultItem, error) {
	valid, invalid := listing.ParseASINList(text)
	if len(invalid) > 0 {
		return nil, &view.FieldError{Field: FieldBatch, MessageKey: "validation.batch_invalid", Detail: strings.Join(invalid, ", ")}
	}
	if len(valid) == 0 {
		return nil, &view.FieldError{Field: FieldBatch, MessageKey: "validation.batch_empty"}
	}
	results, err := c.backend.BatchProcess(ctx, valid)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r.Succeeded() || r.ASIN == "" {
			continue
		}
		title := ""
		if r.Data != nil {
			title = r.Data.Title
		}
		c.history.Add(ctx, r.ASIN, title)
	}
	observability.FromContext(ctx).Info("batch processed",
		zap.Int("requested", len(valid)),
		zap.Int("results", len(results)))
	return results, nil
}

// Preview returns the product to render in the preview page.
func (c *Controller) Preview() (listing.ProductData, error) {
	product, ok := c.Current()
	if !ok {
		return listing.ProductData{}, ErrNoProduct
	}
	return product, nil
}

// Reset discards the current product, cancels an in-flight fetch and drops a pending
// auto-save. The last saved snapshot stays in storage.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.supersedeLocked()
	c.current = nil
	c.mu.Unlock()
	c.autosave.Stop()
}

// Settings returns the active settings.
func (c *Controller) Settings() listing.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// SaveSettings validates and persists s, then points the backend client at the new URL and
// applies the log level.
func (c *Controller) SaveSettings(ctx context.Context, s listing.Settings) (listing.Settings, error) {
	s.APIURL = strings.TrimSpace(s.APIURL)
	if s.APIURL == "" {
		s.APIURL = c.backend.BaseURL()
	}
	s.LogLevel = listing.NormalizeLogLevel(s.LogLevel)

	previous := c.backend.BaseURL()
	if err := c.backend.SetBaseURL(s.APIURL); err != nil {
		return listing.Settings{}, &view.FieldError{Field: FieldSettings, MessageKey: "validation.api_url"}
	}
	s.APIURL = c.backend.BaseURL()
	if err := c.settings.Save(ctx, s); err != nil {
		_ = c.backend.SetBaseURL(previous)
		return listing.Settings{}, err
	}
	c.applyLevel(s.LogLevel)

	c.mu.Lock()
	c.prefs = s
	c.mu.Unlock()
	observability.FromContext(ctx).Info("settings saved",
		zap.String("api_url", s.APIURL),
		zap.Bool("auto_save", s.AutoSave),
		zap.String("log_level", s.LogLevel))
	return s, nil
}

// ResetSettings removes the saved settings and re-applies the defaults.
func (c *Controller) ResetSettings(ctx context.Context) (listing.Settings, error) {
	defaults, err := c.settings.Reset(ctx)
	if err != nil {
		return listing.Settings{}, err
	}
	c.apply(defaults)
	c.mu.Lock()
	c.prefs = defaults
	c.mu.Unlock()
	return defaults, nil
}

// History returns the processed products, most recent first.
func (c *Controller) History(ctx context.Context) []listing.HistoryEntry {
	return c.history.List(ctx)
}

// ClearHistory removes every history entry.
func (c *Controller) ClearHistory(ctx context.Context) {
	c.history.Clear(ctx)
}

// Healthy reports whether the backend answers its health check.
func (c *Controller) Healthy(ctx context.Context) bool {
	return c.backend.HealthCheck(ctx)
}

func (c *Controller) apply(s listing.Settings) {
	if err := c.backend.SetBaseURL(s.APIURL); err != nil {
		c.logger.Warn("saved api url rejected, keeping current",
			zap.String("api_url", s.APIURL),
			zap.String("current", c.backend.BaseURL()))
	}
	c.applyLevel(s.LogLevel)
}

func (c *Controller) applyLevel(name string) {
	if c.level == nil {
		return
	}
	observability.SetLevel(*c.level, name)
}
