package hub

// Inbound event payloads. Validation tags are enforced at dispatch time;
// a failing payload produces an error event for the originator only.

type sendMessagePayload struct {
	Content    string        `json:"content" validate:"required"`
	Type       string        `json:"type"`
	ReplyTo    *replyToField `json:"replyTo"`
	SenderName string        `json:"senderName"`
}

type replyToField struct {
	MessageID string `json:"messageId"`
}

type sendVoicePayload struct {
	AudioBase64 string `json:"audioBase64" validate:"required"`
	Duration    int    `json:"duration"`
	SenderName  string `json:"senderName"`
}

type sendAttachmentPayload struct {
	Filename   string `json:"filename" validate:"required"`
	FileBase64 string `json:"fileBase64" validate:"required"`
	FileType   string `json:"fileType"`
	FileSize   int64  `json:"fileSize"`
	SenderName string `json:"senderName"`
}

type createPollPayload struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"min=2,dive,required"`
}

type votePollPayload struct {
	MessageID   string `json:"messageId" validate:"required"`
	OptionIndex int    `json:"optionIndex" validate:"gte=0"`
}

type typingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type addReactionPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

type readPayload struct {
	MessageIDs []string `json:"messageIds"`
}

type editMessagePayload struct {
	MessageID  string `json:"messageId" validate:"required"`
	NewContent string `json:"newContent" validate:"required"`
}

type deleteMessagePayload struct {
	MessageID         string `json:"messageId" validate:"required"`
	DeleteForEveryone bool   `json:"deleteForEveryone"`
}
