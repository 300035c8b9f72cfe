package push

// Notification is the user visible part of a push payload. Fields map
// one to one onto the FCM notification block.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Image string `json:"image,omitempty"`
}

// Data carries the click-routing hints the client app reads when the
// user taps the notification.
type Data struct {
	Type       string `json:"type"`
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	ChatID     string `json:"chatId,omitempty"`
}

// Payload is one push job addressed to a single user. The bridge fans
// it out to every registered device token of that user.
type Payload struct {
	Notification Notification `json:"notification"`
	Data         Data         `json:"data"`
}

const (
	DataTypeMessage    = "message"
	DataTypeMissedCall = "missed_call"
)
