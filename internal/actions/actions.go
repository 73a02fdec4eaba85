// Package actions classifies configured keyphrase actions and launches them.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies what an action does when its keyphrase is spoken.
type Kind int

const (
	None Kind = iota
	OpenApplication
	OpenURL
)

func (k Kind) String() string {
	switch k {
	case OpenApplication:
		return "open-application"
	case OpenURL:
		return "open-url"
	default:
		return "none"
	}
}

// ErrEmptyTarget is returned when an application or URL action has no target.
var ErrEmptyTarget = errors.New("action has no target")

// Spec is a parsed action. Target is empty for None.
type Spec struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

func (s Spec) String() string {
	if s.Kind == None {
		return "none"
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Target)
}

// Launcher starts applications and opens URIs on the host platform.
type Launcher interface {
	// OpenApplication starts the named application.
	OpenApplication(ctx context.Context, name string) error

	// OpenURL opens uri with the default handler for its scheme.
	OpenURL(ctx context.Context, uri string) error
}

// Parse classifies a raw action string from configuration.
//
// An empty string is a no-op. A string whose prefix up to the first ':' is a
// valid URI scheme (letters, digits, '+', '-', '.') opens as a URL; anything
// else is treated as an application name.
func Parse(raw string) Spec {
	if raw == "" {
		return Spec{Kind: None}
	}
	if i := strings.IndexByte(raw, ':'); i > 0 && isScheme(raw[:i]) {
		return Spec{Kind: OpenURL, Target: raw}
	}
	return Spec{Kind: OpenApplication, Target: raw}
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

// Execute runs spec through l. None succeeds without touching the launcher.
func Execute(ctx context.Context, l Launcher, spec Spec) error {
	switch spec.Kind {
	case None:
		return nil
	case OpenApplication:
		if spec.Target == "" {
			return ErrEmptyTarget
		}
		if err := l.OpenApplication(ctx, spec.Target); err != nil {
			return fmt.Errorf("open application %q: %w", spec.Target, err)
		}
		return nil
	case OpenURL:
		if spec.Target == "" {
			return ErrEmptyTarget
		}
		if err := l.OpenURL(ctx, spec.Target); err != nil {
			return fmt.Errorf("open url %q: %w", spec.Target, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown action kind %d", spec.Kind)
	}
}
