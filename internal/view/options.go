package view

import "finitefield.org/listing-console/internal/listing"

// Option is one <option> of a select control. An empty Value is the placeholder.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// CategoryOptions lists the placeholder followed by one option per category.
// Duplicate ids are kept; only the first matching option is selected.
func CategoryOptions(categories []listing.Category, placeholder, selected string) []Option {
	opts := make([]Option, 0, len(categories)+1)
	opts = append(opts, Option{Label: placeholder, Selected: selected == ""})
	picked := selected == ""
	for _, c := range categories {
		opt := Option{Value: c.ID, Label: c.Name}
		if !picked && c.ID == selected {
			opt.Selected = true
			picked = true
		}
		opts = append(opts, opt)
	}
	return opts
}

// LogLevelOptions lists the selectable log levels with current selected.
func LogLevelOptions(current string) []Option {
	current = listing.NormalizeLogLevel(current)
	levels := listing.LogLevels()
	opts := make([]Option, 0, len(levels))
	for _, level := range levels {
		opts = append(opts, Option{Value: level, Label: level, Selected: level == current})
	}
	return opts
}
