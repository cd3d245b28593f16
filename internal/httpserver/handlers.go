package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/listing-console/internal/app"
	"finitefield.org/listing-console/internal/backend"
	"finitefield.org/listing-console/internal/format"
	custommw "finitefield.org/listing-console/internal/httpserver/middleware"
	"finitefield.org/listing-console/internal/i18n"
	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/observability"
	"finitefield.org/listing-console/internal/templates"
	"finitefield.org/listing-console/internal/view"
)

const (
	eventHistoryChanged = "history-changed"
	eventFocusField     = "focus-field"
	toastTarget         = "#toasts"
)

type handlers struct {
	ctrl   *app.Controller
	render *templates.Renderer
	bundle *i18n.Bundle
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	lang := custommw.Lang(r.Context())
	page := templates.IndexPage{
		History: h.historyRows(r, lang),
		APIURL:  h.ctrl.Settings().APIURL,
	}
	if product, ok := h.ctrl.Current(); ok {
		pv := view.BuildProductView(product)
		page.Product = &pv
	}
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "base", Data: page})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "health", Data: templates.Health{Healthy: h.ctrl.Healthy(r.Context())}})
}

func (h *handlers) historyFragment(w http.ResponseWriter, r *http.Request) {
	lang := custommw.Lang(r.Context())
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "history", Data: h.historyRows(r, lang)})
}

func (h *handlers) historyRows(r *http.Request, lang string) []templates.HistoryRow {
	entries := h.ctrl.History(r.Context())
	rows := make([]templates.HistoryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, templates.HistoryRow{
			ASIN:  e.ASIN,
			Title: e.Title,
			When:  format.Date(format.UnixMilli(e.Timestamp), lang),
		})
	}
	return rows
}

func (h *handlers) fetch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	product, err := h.ctrl.FetchProduct(r.Context(), r.PostForm.Get("asin"))
	if errors.Is(err, app.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParts(w, r, http.StatusOK,
		templates.Part{Name: "fetched", Data: view.BuildProductView(product)},
		h.toastPart(r, view.ToastSuccess, "toast.fetched"),
	)
}

func (h *handlers) image(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	url, err := h.ctrl.ImageAt(index)
	if errors.Is(err, app.ErrImageIndex) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	product, _ := h.ctrl.Current()
	h.renderParts(w, r, http.StatusOK, templates.Part{
		Name: "main_image",
		Data: templates.MainImage{URL: url, Alt: product.Title, Index: index},
	})
}

func (h *handlers) edit(w http.ResponseWriter, r *http.Request) {
	form, restorable, err := h.ctrl.BeginEdit(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderEdit(w, r, form, restorable)
}

func (h *handlers) renderEdit(w http.ResponseWriter, r *http.Request, form view.EditForm, restorable bool, extra ...templates.Part) {
	lang := custommw.Lang(r.Context())
	panel := templates.EditPanel{
		Form:       form,
		CharCount:  form.CharCount(),
		Categories: view.CategoryOptions(h.ctrl.Categories(), h.bundle.T(lang, "edit.category_placeholder"), form.Category),
		Restorable: restorable,
	}
	parts := append([]templates.Part{{Name: "edit", Data: panel}}, extra...)
	h.renderParts(w, r, http.StatusOK, parts...)
}

func (h *handlers) editInput(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	count := h.ctrl.RecordInput(view.ParseEditForm(r.PostForm))
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "char_count", Data: count})
}

func (h *handlers) restore(w http.ResponseWriter, r *http.Request) {
	form, err := h.ctrl.RestoreSnapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderEdit(w, r, form, false, h.toastPart(r, view.ToastInfo, "toast.restored"))
}

// editedForm returns the submitted edit form, or the current product unedited when the
// request was sent without the edit panel open.
func (h *handlers) editedForm(r *http.Request) (view.EditForm, error) {
	if _, ok := r.PostForm[view.FieldTitle]; ok {
		return view.ParseEditForm(r.PostForm), nil
	}
	product, ok := h.ctrl.Current()
	if !ok {
		return view.EditForm{}, app.ErrNoProduct
	}
	return view.PopulateEditForm(product), nil
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form, err := h.editedForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.ctrl.Register(r.Context(), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderResults(w, r, results, "toast.registered")
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form, err := h.editedForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.ctrl.Update(r.Context(), r.PostForm.Get(app.FieldItemURL), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderResults(w, r, results, "toast.updated")
}

// renderResults shows the summary and, when at least one item succeeded, a success toast.
func (h *handlers) renderResults(w http.ResponseWriter, r *http.Request, results []listing.ResultItem, successKey string) {
	summary := view.BuildResultsView(results...)
	parts := []templates.Part{{Name: "results", Data: summary}}
	if summary.Success > 0 {
		parts = append(parts, h.toastPart(r, view.ToastSuccess, successKey))
		custommw.TriggerEvent(w, eventHistoryChanged, nil)
	}
	h.renderParts(w, r, http.StatusOK, parts...)
}

func (h *handlers) batch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	results, err := h.ctrl.BatchProcess(r.Context(), r.PostForm.Get("asins"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lang := custommw.Lang(r.Context())
	summary := view.BuildResultsView(results...)
	kind := view.ToastSuccess
	if summary.Failed > 0 {
		kind = view.ToastWarning
	}
	if summary.Success > 0 {
		custommw.TriggerEvent(w, eventHistoryChanged, nil)
	}
	h.renderParts(w, r, http.StatusOK,
		templates.Part{Name: "results", Data: summary},
		toastOOB(view.NewToast(kind, h.bundle.Tf(lang, "toast.batch_done", summary.Success, summary.Failed))),
	)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Reset()
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "cleared"})
}

func (h *handlers) preview(w http.ResponseWriter, r *http.Request) {
	product, err := h.ctrl.Preview()
	if err != nil {
		lang := custommw.Lang(r.Context())
		http.Error(w, h.bundle.T(lang, "toast.no_preview"), http.StatusNotFound)
		return
	}
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "preview", Data: view.BuildPreviewDocument(product)})
}

func (h *handlers) helpModal(w http.ResponseWriter, r *http.Request) {
	content, err := view.HelpHTML(custommw.Lang(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderParts(w, r, http.StatusOK, templates.Part{Name: "modal_help", Data: templates.HelpModal{Content: content}})
}

func (h *handlers) settingsModal(w http.ResponseWriter, r *http.Request) {
	h.renderParts(w, r, http.StatusOK, settingsPart(h.ctrl.Settings()))
}

func settingsPart(s listing.Settings) templates.Part {
	return templates.Part{Name: "modal_settings", Data: templates.SettingsModal{
		Settings:  s,
		LogLevels: view.LogLevelOptions(s.LogLevel),
	}}
}

// saveSettings persists the dialog values. On success the dialog closes: the response body
// is empty apart from the out-of-band toast.
func (h *handlers) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	_, err := h.ctrl.SaveSettings(r.Context(), listing.Settings{
		APIURL:   r.PostForm.Get(app.FieldSettings),
		AutoSave: r.PostForm.Get("auto-save-setting") == "on",
		LogLevel: r.PostForm.Get("log-level-setting"),
	})
	if err != nil {
		var ferr *view.FieldError
		if !errors.As(err, &ferr) {
			err = &settingsError{err: err}
		}
		h.fail(w, r, err)
		return
	}
	h.renderParts(w, r, http.StatusOK, h.toastPart(r, view.ToastSuccess, "toast.settings_saved"))
}

func (h *handlers) resetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.ResetSettings(r.Context())
	if err != nil {
		h.fail(w, r, &settingsError{err: err})
		return
	}
	h.renderParts(w, r, http.StatusOK, settingsPart(s), h.toastPart(r, view.ToastInfo, "toast.settings_reset"))
}

func (h *handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearHistory(r.Context())
	custommw.TriggerEvent(w, eventHistoryChanged, nil)
	h.renderParts(w, r, http.StatusOK, h.toastPart(r, view.ToastInfo, "toast.history_cleared"))
}

// settingsError marks a storage failure while saving settings.
type settingsError struct{ err error }

func (e *settingsError) Error() string { return "settings: " + e.err.Error() }
func (e *settingsError) Unwrap() error { return e.err }

func (h *handlers) toastPart(r *http.Request, kind view.ToastKind, key string) templates.Part {
	return toastOOB(view.NewToast(kind, h.bundle.T(custommw.Lang(r.Context()), key)))
}

func toastOOB(t view.Toast) templates.Part {
	return templates.Part{Name: "toast_oob", Data: templates.Toasts{Items: []view.Toast{t}}}
}

// fail reports err as an error toast. htmx requests get a 200 retargeted at the toast
// container so the swap happens; other clients get the mapped status code.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	lang := custommw.Lang(r.Context())
	logger := observability.FromContext(r.Context())
	message, status := h.describe(lang, err)

	var ferr *view.FieldError
	if errors.As(err, &ferr) {
		logger.Debug("validation failed", zap.String("field", ferr.Field), zap.String("key", ferr.MessageKey))
		custommw.TriggerEvent(w, eventFocusField, map[string]string{"id": ferr.Field})
	} else if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}

	if custommw.IsHTMXRequest(r.Context()) {
		custommw.Retarget(w, toastTarget, "innerHTML")
		status = http.StatusOK
	}
	h.renderParts(w, r, status, templates.Part{
		Name: "toast",
		Data: templates.Toasts{Items: []view.Toast{view.NewToast(view.ToastError, message)}},
	})
}

func (h *handlers) describe(lang string, err error) (string, int) {
	var (
		ferr       *view.FieldError
		timeoutErr *backend.TimeoutError
		connErr    *backend.ConnectivityError
		statusErr  *backend.HTTPStatusError
		appErr     *backend.ApplicationError
		saveErr    *settingsError
	)
	switch {
	case errors.As(err, &ferr):
		msg := h.bundle.T(lang, ferr.MessageKey)
		if ferr.Detail != "" {
			msg += ": " + ferr.Detail
		}
		return msg, http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrNoProduct):
		return h.bundle.T(lang, "toast.no_product"), http.StatusConflict
	case errors.Is(err, app.ErrNoSnapshot):
		return h.bundle.T(lang, "toast.no_snapshot"), http.StatusNotFound
	case errors.As(err, &timeoutErr):
		return h.bundle.T(lang, "error.timeout"), http.StatusGatewayTimeout
	case errors.As(err, &connErr):
		return h.bundle.T(lang, "error.connectivity"), http.StatusBadGateway
	case errors.As(err, &statusErr):
		return statusErr.UserMessage(), http.StatusBadGateway
	case errors.As(err, &appErr):
		if msg := strings.TrimSpace(appErr.Message); msg != "" {
			return msg, http.StatusBadGateway
		}
		return h.bundle.T(lang, "error.op."+appErr.Op), http.StatusBadGateway
	case errors.As(err, &saveErr):
		return h.bundle.T(lang, "toast.settings_failed"), http.StatusInternalServerError
	default:
		return h.bundle.T(lang, "error.unexpected"), http.StatusInternalServerError
	}
}

func (h *handlers) renderParts(w http.ResponseWriter, r *http.Request, status int, parts ...templates.Part) {
	lang := custommw.Lang(r.Context())
	if err := h.render.RenderParts(w, r, status, lang, parts...); err != nil {
		observability.FromContext(r.Context()).Error("render failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
