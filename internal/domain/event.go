package domain

// InboundType is the shape of an inbound chat event
type InboundType string

const (
	// InboundCommand - a "/command args" message
	InboundCommand InboundType = "command"
	// InboundText - free text
	InboundText InboundType = "text"
	// InboundImage - an image message
	InboundImage InboundType = "image"
)

// ChatEvent is one inbound event delivered by the event router,
// tagged with the chat it belongs to and the acting user.
type ChatEvent struct {
	ChatID  string
	UserID  string
	Type    InboundType
	Command string // lower-cased, without the leading slash
	Args    string
	Text    string
	// ImageMessageID identifies the image on the chat platform; bytes are fetched lazily
	ImageMessageID string
}

// OutgoingKind is what the chat platform should send back
type OutgoingKind string

const (
	// OutgoingText - a plain text reply
	OutgoingText OutgoingKind = "text"
	// OutgoingReaction - an acknowledgement reaction
	OutgoingReaction OutgoingKind = "reaction"
)

// OutgoingMessage is one reply requested by the state machine
type OutgoingMessage struct {
	Kind        OutgoingKind
	Text        string
	LinkPreview bool
}

// Outcome is the result of processing one event
type Outcome struct {
	// ChatID is the chat the messages are addressed to
	ChatID   string
	Messages []OutgoingMessage
	// AuthorizationURL is set when the chat has to authorize the bot first
	AuthorizationURL string
}

// Reply appends a text message to the outcome
func (o *Outcome) Reply(text string) {
	o.Messages = append(o.Messages, OutgoingMessage{Kind: OutgoingText, Text: text})
}

// ReplyWithPreview appends a text message whose link should be previewed
func (o *Outcome) ReplyWithPreview(text string) {
	o.Messages = append(o.Messages, OutgoingMessage{Kind: OutgoingText, Text: text, LinkPreview: true})
}

// React appends a reaction
func (o *Outcome) React(emoji string) {
	o.Messages = append(o.Messages, OutgoingMessage{Kind: OutgoingReaction, Text: emoji})
}

// AuthorizationCallback is what the OAuth redirect handler hands to the core
type AuthorizationCallback struct {
	State string
	Code  string
}
