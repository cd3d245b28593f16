package view

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ToastKind selects the toast styling.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

// ToastLifetime is how long a toast stays before it dismisses itself.
const ToastLifetime = 5 * time.Second

// Toast is a transient notification.
type Toast struct {
	ID      string
	Kind    ToastKind
	Message string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewToast returns a toast with a fresh ULID.
func NewToast(kind ToastKind, message string) Toast {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return Toast{ID: id.String(), Kind: kind, Message: message}
}

// Icon returns the icon class for the toast kind.
func (t Toast) Icon() string {
	switch t.Kind {
	case ToastError:
		return "exclamation-triangle"
	case ToastSuccess:
		return "check-circle"
	default:
		return "info-circle"
	}
}
