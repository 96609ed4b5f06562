package device

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies a simulated device
type Kind string

const (
	Compact Kind = "compact"
	Tablet  Kind = "tablet"
)

// Kinds lists every selectable kind in display order
var Kinds = []Kind{Compact, Tablet}

// Profile is the chrome geometry of one simulated device
type Profile struct {
	Kind         Kind   `json:"kind"`
	Label        string `json:"label"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CornerRadius int    `json:"cornerRadius"`
	Notch        bool   `json:"notch"`
}

var profiles = map[Kind]Profile{
	Compact: {Kind: Compact, Label: "iOS View", Width: 320, Height: 640, CornerRadius: 40, Notch: true},
	Tablet:  {Kind: Tablet, Label: "Android View", Width: 360, Height: 600, CornerRadius: 20},
}

var aliases = map[string]Kind{
	"compact": Compact,
	"ios":     Compact,
	"tablet":  Tablet,
	"android": Tablet,
}

// ParseKind accepts a kind name or its platform alias, case-insensitively
func ParseKind(s string) (Kind, error) {
	k, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown device kind %q", s)
	}
	return k, nil
}

// Lookup returns the profile for k
func Lookup(k Kind) (Profile, bool) {
	p, ok := profiles[k]
	return p, ok
}

// Selector holds the active device profile
type Selector struct {
	mu      sync.RWMutex
	current Kind
}

// NewSelector starts on the compact profile
func NewSelector() *Selector {
	return &Selector{current: Compact}
}

// Select makes k active. Unknown kinds leave the selection unchanged.
func (s *Selector) Select(k Kind) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := profiles[k]; ok {
		s.current = k
	}
	return profiles[s.current]
}

// Current returns the active profile
func (s *Selector) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return profiles[s.current]
}
