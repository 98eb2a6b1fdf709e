package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength = 255
	maxTextLength  = 1000
)

// Title is a validated task title (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if utf8.RuneCountInString(s) > maxTitleLength {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// Text is the validated body of a todo item (1-1000 characters).
// Whitespace-only input is treated as empty.
type Text struct {
	value string
}

// NewText creates a new Text, validating the input.
func NewText(s string) (Text, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Text{}, ErrTextRequired
	}

	if utf8.RuneCountInString(s) > maxTextLength {
		return Text{}, ErrTextTooLong
	}

	return Text{value: s}, nil
}

// String returns the text value.
func (t Text) String() string {
	return t.value
}
