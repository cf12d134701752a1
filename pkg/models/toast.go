package models

import "github.com/google/uuid"

// Toast types understood by the editor's notification tray.
const (
	ToastInfo    = "INFO_TOAST"
	ToastSuccess = "SUCCESS_TOAST"
	ToastWarning = "WARNING_TOAST"
	ToastDanger  = "DANGER_TOAST"
)

// Toast is one notification rendered when the session opens.
type Toast struct {
	ID        string `json:"id"`
	ToastType string `json:"toastType"`
	Text      string `json:"text"`
	Duration  int    `json:"duration"`
}

// flash severity → toast type. Unknown severities degrade to info.
var toastTypeBySeverity = map[string]string{
	"info":    ToastInfo,
	"alert":   ToastWarning,
	"warning": ToastWarning,
	"danger":  ToastDanger,
	"error":   ToastDanger,
	"success": ToastSuccess,
}

// ToastsFromFlashMessages converts server flash messages into toast records
// for the snapshot. Toasts persist until dismissed (duration 0).
func ToastsFromFlashMessages(messages []FlashMessage) []Toast {
	toasts := make([]Toast, 0, len(messages))
	for _, m := range messages {
		toastType, ok := toastTypeBySeverity[m[0]]
		if !ok {
			toastType = ToastInfo
		}
		toasts = append(toasts, Toast{
			ID:        uuid.NewString(),
			ToastType: toastType,
			Text:      m[1],
		})
	}
	return toasts
}
