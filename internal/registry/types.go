// Package registry implements the access-gated attribute registry: color
// and trophy attributes keyed by address or (collection, item), mutable
// only by the assigned renderer and validated before every write.
package registry

import (
	"errors"
	"fmt"
)

// Channel identifies one of the four named color slots in a ColorSet.
type Channel uint8

const (
	ChannelOutline Channel = iota
	ChannelFlame
	ChannelDiamond
	ChannelSquare
)

// ErrUnknownChannel is returned when parsing an unrecognized channel name.
var ErrUnknownChannel = errors.New("unknown color channel")

// channelNames maps channels to their wire names, indexed by Channel value.
var channelNames = [...]string{"outline", "flame", "diamond", "square"}

// String returns the channel's wire name.
func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// ParseChannel converts a wire name back to a Channel.
func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if s == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// ColorSet holds the four optional color channels for an address or item.
// A nil field means "no override here, fall back to a lower-priority
// source"; it is never an implicit black or empty string.
type ColorSet struct {
	Outline *string `json:"outline"`
	Flame   *string `json:"flame"`
	Diamond *string `json:"diamond"`
	Square  *string `json:"square"`
}

// Channel returns the value stored for a single channel.
func (cs ColorSet) Channel(ch Channel) *string {
	switch ch {
	case ChannelOutline:
		return cs.Outline
	case ChannelFlame:
		return cs.Flame
	case ChannelDiamond:
		return cs.Diamond
	case ChannelSquare:
		return cs.Square
	}
	return nil
}

// itemKey identifies one item within a collection.
type itemKey struct {
	collection string
	item       uint64
}
