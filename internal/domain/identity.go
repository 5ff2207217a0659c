package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

type SessionToken string
type AgentID string
type NetworkID string

type Identity struct {
	Agent   AgentID
	Network NetworkID
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidIdentifier reports whether s is usable as an agent, network or peer name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func ValidateAgentID(id AgentID) error {
	if !ValidIdentifier(string(id)) {
		return fmt.Errorf("%w: agent %q (only letters, numbers, hyphens and underscores are allowed)", ErrInvalidIdentifier, id)
	}
	return nil
}

func ValidateNetworkID(id NetworkID) error {
	if !ValidIdentifier(string(id)) {
		return fmt.Errorf("%w: network %q (only letters, numbers, hyphens and underscores are allowed)", ErrInvalidIdentifier, id)
	}
	return nil
}

// ContentLength counts text units the same way on every side of a relay.
func ContentLength(content string) int {
	return utf8.RuneCountInString(content)
}

func ValidateContent(content string) error {
	if n := ContentLength(content); n > MaxContentLength {
		return fmt.Errorf("%w: %d chars, max is %d; consider sharing a file path instead", ErrContentTooLarge, n, MaxContentLength)
	}
	return nil
}
