package model

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20

	MinPasswordLength = 8
	MaxPasswordLength = 80

	// MaxCarNameLength is the maximum length of a car name, in characters.
	MaxCarNameLength = 100

	// MaxImageURLLength is the maximum length for car image URLs.
	MaxImageURLLength = 255
)

// Validation errors. Messages are shown to users as-is.
var (
	ErrUsernameLength  = errors.New("username must be between 3 and 20 characters")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, '_', '.' and '-'")
	ErrPasswordLength  = errors.New("password must be between 8 and 80 characters")
	ErrCarNameRequired = errors.New("car name is required")
	ErrCarNameTooLong  = errors.New("car name must be at most 100 characters")
	ErrCarNameInvalid  = errors.New("car name contains invalid characters")
	ErrImageURLTooLong = errors.New("image URL must be at most 255 characters")
	ErrImageURLInvalid = errors.New("image URL must be an http or https URL")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateUsername checks a signup username.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword checks a signup password. Only length is enforced.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

// ValidateCarName checks an already trimmed car name.
func ValidateCarName(name string) error {
	if name == "" {
		return ErrCarNameRequired
	}
	if utf8.RuneCountInString(name) > MaxCarNameLength {
		return ErrCarNameTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrCarNameInvalid
		}
	}
	return nil
}

// ValidateImageURL checks an optional car image URL.
// Empty is valid; the placeholder image is used instead.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLength {
		return ErrImageURLTooLong
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrImageURLInvalid
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrImageURLInvalid
	}
	if parsed.Host == "" {
		return ErrImageURLInvalid
	}

	return nil
}
