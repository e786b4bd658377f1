package domain

import "fmt"

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsApp"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusRejected   Status = "rejected"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusViewed     Status = "viewed"
)

// Origin says which path a status update arrived on. Broker-sourced updates
// are persisted but never re-published, otherwise a consumed event would
// bounce back to the broker forever.
type Origin string

const (
	OriginDirect Origin = "direct"
	OriginBroker Origin = "fromBroker"
)

func ValidChannel(c Channel) bool {
	return c == ChannelSMS || c == ChannelWhatsApp
}

func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case StatusProcessing, StatusRejected, StatusSent, StatusDelivered, StatusViewed:
		return Status(v), nil
	}
	return "", &ValidationError{Fields: []FieldError{{
		Field:   "status",
		Message: fmt.Sprintf("must be one of processing|rejected|sent|delivered|viewed, got %q", v),
	}}}
}

// Notification is the durable record. Everything except Status and Timestamp
// is write-once at creation.
type Notification struct {
	ID         string  `json:"id"`
	ExternalID string  `json:"externalId"`
	Channel    Channel `json:"channel"`
	To         string  `json:"to"`
	Body       string  `json:"body"`
	Status     Status  `json:"status"`
	Timestamp  string  `json:"timestamp"`
}

// StatusChangeEvent is the broker wire shape. It announces that the record
// for ExternalID reflects (or should reflect) the given status; it is not a
// second authoritative copy of the record.
type StatusChangeEvent struct {
	ExternalID string `json:"externalId"`
	Status     Status `json:"status"`
	Timestamp  string `json:"timestamp"`
}

type CreateRequest struct {
	Channel    Channel `json:"channel"`
	To         string  `json:"to"`
	Body       string  `json:"body"`
	ExternalID string  `json:"externalId"`
}

// Validate checks every constraint and reports all violations, not just the
// first one.
func (r CreateRequest) Validate() error {
	var fields []FieldError
	if !ValidChannel(r.Channel) {
		fields = append(fields, FieldError{Field: "channel", Message: "must be one of sms|whatsApp"})
	}
	if len(r.To) < 10 {
		fields = append(fields, FieldError{Field: "to", Message: "must be at least 10 characters"})
	}
	if r.Body == "" {
		fields = append(fields, FieldError{Field: "body", Message: "must not be empty"})
	}
	if len(r.ExternalID) < 3 {
		fields = append(fields, FieldError{Field: "externalId", Message: "must be at least 3 characters"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type UpdateResult struct {
	ExternalID string `json:"externalId"`
	Status     Status `json:"status"`
}
