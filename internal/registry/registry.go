// Package registry maps the fully qualified type names of the checkers
// transaction messages to their codecs. The table is fixed at init and
// covers exactly the message kinds of the module.
package registry

import (
	"fmt"

	"checkers-client/internal/domain"
)

// MsgKind enumerates the known message kinds.
type MsgKind int

// Message kinds.
const (
	KindMsgPlayMove MsgKind = iota + 1
	KindMsgCreateGame
	KindMsgRejectGame
)

func (k MsgKind) String() string {
	switch k {
	case KindMsgPlayMove:
		return "MsgPlayMove"
	case KindMsgCreateGame:
		return "MsgCreateGame"
	case KindMsgRejectGame:
		return "MsgRejectGame"
	}
	return fmt.Sprintf("MsgKind(%d)", int(k))
}

// UnknownTypeError is returned when a type name has no registered codec.
type UnknownTypeError struct {
	TypeURL string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type %q", e.TypeURL)
}

// Codec encodes and decodes one message kind.
type Codec struct {
	kind    MsgKind
	typeURL string
	newMsg  func() domain.Msg
}

// Kind returns the message kind handled by c.
func (c Codec) Kind() MsgKind { return c.kind }

// TypeURL returns the fully qualified type name handled by c.
func (c Codec) TypeURL() string { return c.typeURL }

// New returns an empty message of the codec's kind.
func (c Codec) New() domain.Msg { return c.newMsg() }

// Encode serializes msg, which must be of the codec's kind.
func (c Codec) Encode(msg domain.Msg) ([]byte, error) {
	if msg == nil || domain.TypeURL(msg.MsgName()) != c.typeURL {
		return nil, fmt.Errorf("encode %s: got %T", c.kind, msg)
	}
	return msg.Marshal(), nil
}

// Decode parses b into a fresh message of the codec's kind.
func (c Codec) Decode(b []byte) (domain.Msg, error) {
	msg := c.newMsg()
	if err := msg.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.kind, err)
	}
	return msg, nil
}

var (
	codecs = []Codec{
		{kind: KindMsgPlayMove, newMsg: func() domain.Msg { return &domain.MsgPlayMove{} }},
		{kind: KindMsgCreateGame, newMsg: func() domain.Msg { return &domain.MsgCreateGame{} }},
		{kind: KindMsgRejectGame, newMsg: func() domain.Msg { return &domain.MsgRejectGame{} }},
	}
	byTypeURL = make(map[string]Codec, len(codecs))
	byKind    = make(map[MsgKind]Codec, len(codecs))
)

func init() {
	for i := range codecs {
		c := &codecs[i]
		c.typeURL = domain.TypeURL(c.newMsg().MsgName())
		if _, dup := byTypeURL[c.typeURL]; dup {
			panic("registry: duplicate type " + c.typeURL)
		}
		byTypeURL[c.typeURL] = *c
		byKind[c.kind] = *c
	}
}

// Lookup returns the codec registered for typeURL.
func Lookup(typeURL string) (Codec, error) {
	c, ok := byTypeURL[typeURL]
	if !ok {
		return Codec{}, &UnknownTypeError{TypeURL: typeURL}
	}
	return c, nil
}

// ForKind returns the codec of a message kind.
func ForKind(k MsgKind) (Codec, bool) {
	c, ok := byKind[k]
	return c, ok
}

// TypeURLs lists the registered type names in registration order.
func TypeURLs() []string {
	out := make([]string, 0, len(codecs))
	for _, c := range codecs {
		out = append(out, c.typeURL)
	}
	return out
}

// Pack encodes msg into an Any envelope.
func Pack(msg domain.Msg) (domain.Any, error) {
	if msg == nil {
		return domain.Any{}, fmt.Errorf("pack: nil message")
	}
	c, err := Lookup(domain.TypeURL(msg.MsgName()))
	if err != nil {
		return domain.Any{}, err
	}
	value, err := c.Encode(msg)
	if err != nil {
		return domain.Any{}, err
	}
	return domain.Any{TypeURL: c.typeURL, Value: value}, nil
}

// Unpack decodes an Any envelope into its message.
func Unpack(a domain.Any) (domain.Msg, error) {
	c, err := Lookup(a.TypeURL)
	if err != nil {
		return nil, err
	}
	return c.Decode(a.Value)
}
