package chat

// Session is one conversation thread, owned by exactly one user email.
type Session struct {
	ID           string     `json:"session_id"`
	Name         string     `json:"name"`
	Picture      string     `json:"picture"`
	Conversation []Exchange `json:"conversation"`
}

// Exchange is a single user turn and the model's answer to it.
type Exchange struct {
	UserMessage string `json:"user_message"`
	Response    string `json:"response"`
}
