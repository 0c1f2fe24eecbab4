// Package events normalizes raw terminal callbacks into a single
// (status, type, message) shape and fans them out to per-category
// observer lists in registration order.
package events

// Placeholder is substituted for type and message fields that arrive
// absent on a raw callback. Kept verbatim for wire-log compatibility
// with the terminal host.
const Placeholder = "(null)"

// Raw is a callback payload exactly as the terminal driver delivered
// it. Nil Type or Message mark fields absent on the wire; Status is
// already stringified by the driver.
type Raw struct {
	Category Category
	Status   string
	Type     *string
	Message  *string
}

// Event is the normalized, immutable triple forwarded to observers.
type Event struct {
	Category Category
	Status   string
	Type     EventType
	Message  string
}

// Normalize converts a raw callback into a typed Event. Absent fields
// become the "(null)" placeholder; an unrecognised non-empty type tag
// yields a protocol error and the zero Event.
func Normalize(raw Raw) (Event, error) {
	tag := Placeholder
	if raw.Type != nil {
		tag = *raw.Type
	}
	message := Placeholder
	if raw.Message != nil {
		message = *raw.Message
	}

	typ, err := ParseEventType(tag)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Category: raw.Category,
		Status:   raw.Status,
		Type:     typ,
		Message:  message,
	}, nil
}
