package conversation

import (
	"sort"
	"strings"

	apperrors "moswords/pkg/errors"
)

type Kind string

const (
	KindChannel       Kind = "channel"
	KindDirectMessage Kind = "dm"
	KindGroup         Kind = "group"
)

// Scope is the unit that shares exactly one conversation key.
type Scope struct {
	Kind Kind
	ID   string
}

const separator = ":"

func Channel(channelID string) Scope {
	return Scope{Kind: KindChannel, ID: channelID}
}

func Group(groupID string) Scope {
	return Scope{Kind: KindGroup, ID: groupID}
}

// DirectMessage yields the same scope whichever participant calls it.
func DirectMessage(userA, userB string) Scope {
	return Scope{Kind: KindDirectMessage, ID: DirectMessageID(userA, userB)}
}

func DirectMessageID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, separator)
}

// Participants returns the two users of a direct message scope, and nil for
// channels and groups, whose membership lives elsewhere.
func (s Scope) Participants() []string {
	if s.Kind != KindDirectMessage {
		return nil
	}
	a, b, ok := strings.Cut(s.ID, separator)
	if !ok {
		return nil
	}
	return []string{a, b}
}

// String is the canonical form used as cache and storage key, e.g. "dm:a:b".
func (s Scope) String() string {
	return string(s.Kind) + separator + s.ID
}

func (s Scope) Validate() error {
	if s.ID == "" || strings.ContainsAny(s.ID, " \t\r\n") {
		return apperrors.ErrInvalidScope
	}
	switch s.Kind {
	case KindChannel, KindGroup:
		return nil
	case KindDirectMessage:
		parts := strings.Split(s.ID, separator)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] > parts[1] {
			return apperrors.ErrInvalidScope
		}
		return nil
	default:
		return apperrors.ErrInvalidScope
	}
}

// Parse reads the canonical form back.
func Parse(raw string) (Scope, error) {
	kind, id, ok := strings.Cut(raw, separator)
	if !ok {
		return Scope{}, apperrors.ErrInvalidScope
	}
	s := Scope{Kind: Kind(kind), ID: id}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}
