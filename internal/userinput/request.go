// Package userinput mediates interactive prompts raised by the
// terminal mid-transaction. It classifies each prompt, routes it to an
// operator, and guarantees the terminal always receives exactly one
// response even when the operator side fails.
package userinput

import "strings"

// Kind is the classified input category of a prompt.
type Kind string

const (
	KindText         Kind = "text"
	KindNumeric      Kind = "numeric"
	KindSelection    Kind = "selection"
	KindConfirmation Kind = "confirmation"
	KindUnknown      Kind = "unknown"
)

// Classify maps a raw input type tag to its Kind by keyword match.
func Classify(inputType string) Kind {
	tag := strings.ToUpper(inputType)
	switch {
	case strings.Contains(tag, "TEXT") || strings.Contains(tag, "STRING"):
		return KindText
	case strings.Contains(tag, "NUMERIC") || strings.Contains(tag, "AMOUNT"):
		return KindNumeric
	case strings.Contains(tag, "SELECT") || strings.Contains(tag, "CHOICE"):
		return KindSelection
	case strings.Contains(tag, "CONFIRM") || strings.Contains(tag, "ACKNOWLEDGE"):
		return KindConfirmation
	default:
		return KindUnknown
	}
}

// RequiresInput reports whether the prompt needs an operator response.
// The two sentinel tags are display-only; every other non-empty tag
// requires input.
func RequiresInput(inputType string) bool {
	return inputType != "" && inputType != "DISPLAY_ONLY" && inputType != "ACKNOWLEDGE"
}

// Masked reports whether the presentation layer must hide the typed
// input. Protocol logic never branches on this.
func Masked(inputType string) bool {
	tag := strings.ToUpper(inputType)
	return strings.Contains(tag, "PIN") ||
		strings.Contains(tag, "PASSWORD") ||
		strings.Contains(tag, "SECURE")
}

// Request describes one interactive prompt from the terminal.
type Request struct {
	InputType     string
	Prompt        string
	Message       string
	Kind          Kind
	RequiresInput bool
	Masked        bool
	MinLength     int // 0 when the terminal did not constrain it
	MaxLength     int // 0 when the terminal did not constrain it
	Options       []string
}

// NewRequest builds a classified Request from the raw prompt fields.
func NewRequest(inputType, prompt, message string, options []string) *Request {
	return &Request{
		InputType:     inputType,
		Prompt:        prompt,
		Message:       message,
		Kind:          Classify(inputType),
		RequiresInput: RequiresInput(inputType),
		Masked:        Masked(inputType),
		Options:       options,
	}
}
