package models

type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationWarning NotificationKind = "warning"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

type Notification struct {
	ID        ID               `json:"id"`
	UserID    ID               `json:"usuario_id"`
	Title     string           `json:"titulo"`
	Message   string           `json:"mensaje"`
	Kind      NotificationKind `json:"tipo"`
	Read      bool             `json:"leida"`
	CreatedAt string           `json:"fecha_creacion"`
	ReadAt    string           `json:"fecha_lectura,omitempty"`
}

type CreateNotificationRequest struct {
	UserID  ID               `json:"usuario_id,omitempty"`
	Title   string           `json:"titulo"`
	Message string           `json:"mensaje"`
	Kind    NotificationKind `json:"tipo"`
}

// NotificationEvent is what the notification service publishes when it
// stores a new notification. Receiver is a user id or "todos".
type NotificationEvent struct {
	Kind     string `json:"tipo"`
	Message  string `json:"mensaje"`
	Receiver ID     `json:"receptor"`
	Date     string `json:"fecha,omitempty"`
}

func (e NotificationEvent) IsBroadcast() bool {
	return e.Receiver == "" || e.Receiver == "todos" || e.Receiver == "all"
}
