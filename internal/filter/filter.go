package filter

import (
	"fmt"
	"strings"
)

// Default tracked event family: liquidity pool swaps.
const (
	DefaultModuleAddress = "0x163df34fccbf003ce219d3f1d9e70d140b60622cb9dd47599c25fb2f797ba6e"
	DefaultModuleName    = "liquidity_pool"
	DefaultEventName     = "SwapEvent"
)

const tagSeparator = "::"

// EventType identifies an event family as address::module::name.
type EventType struct {
	Address string
	Module  string
	Name    string
}

func (t EventType) String() string {
	return t.Address + tagSeparator + t.Module + tagSeparator + t.Name
}

// DefaultEventType returns the tracked family used when none is configured.
func DefaultEventType() EventType {
	return EventType{
		Address: DefaultModuleAddress,
		Module:  DefaultModuleName,
		Name:    DefaultEventName,
	}
}

// ParseEventType splits a type tag into its three segments.
func ParseEventType(tag string) (EventType, error) {
	parts := strings.Split(tag, tagSeparator)
	if len(parts) != 3 {
		return EventType{}, fmt.Errorf("event type %q: expected address::module::name", tag)
	}
	for _, part := range parts {
		if part == "" {
			return EventType{}, fmt.Errorf("event type %q: empty segment", tag)
		}
	}
	return EventType{Address: parts[0], Module: parts[1], Name: parts[2]}, nil
}

// Filter decides whether an event type tag belongs to a tracked family.
type Filter struct {
	tracked map[EventType]struct{}
}

// New builds a Filter over the given families, or the default family if none.
func New(types ...EventType) *Filter {
	if len(types) == 0 {
		types = []EventType{DefaultEventType()}
	}
	tracked := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		tracked[t] = struct{}{}
	}
	return &Filter{tracked: tracked}
}

// Default returns a Filter tracking only the default family.
func Default() *Filter {
	return New()
}

// Included reports whether typeTag is exactly address::module::name of a
// tracked family. Tags with any other number of segments never match.
func (f *Filter) Included(typeTag string) bool {
	if typeTag == "" {
		return false
	}
	parts := strings.Split(typeTag, tagSeparator)
	if len(parts) != 3 {
		return false
	}
	_, ok := f.tracked[EventType{Address: parts[0], Module: parts[1], Name: parts[2]}]
	return ok
}

// Types returns the tracked families in no particular order.
func (f *Filter) Types() []EventType {
	out := make([]EventType, 0, len(f.tracked))
	for t := range f.tracked {
		out = append(out, t)
	}
	return out
}

var defaultFilter = Default()

// IncludedEventType applies the default family filter.
func IncludedEventType(typeTag string) bool {
	return defaultFilter.Included(typeTag)
}
