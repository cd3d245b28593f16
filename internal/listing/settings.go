package listing

import "strings"

// Log levels selectable from the settings dialog.
const (
	LogLevelError = "ERROR"
	LogLevelWarn  = "WARN"
	LogLevelInfo  = "INFO"
	LogLevelDebug = "DEBUG"
)

// Settings is the user-editable configuration persisted between runs.
type Settings struct {
	APIURL   string `json:"apiUrl"`
	AutoSave bool   `json:"autoSave"`
	LogLevel string `json:"logLevel"`
}

// DefaultSettings returns the settings used before the user saves anything.
func DefaultSettings(apiURL string) Settings {
	return Settings{
		APIURL:   apiURL,
		AutoSave: true,
		LogLevel: LogLevelInfo,
	}
}

// NormalizeLogLevel maps free-form input onto one of the known levels, defaulting to INFO.
func NormalizeLogLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LogLevelError:
		return LogLevelError
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelDebug:
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// LogLevels lists the selectable levels, most restrictive first.
func LogLevels() []string {
	return []string{LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug}
}
