package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"eventScope/internal/filter"
)

// ParseEventTypes converts address::module::name strings into tracked event
// types. Addresses must be 0x-prefixed hex; short forms with an odd number
// of digits are accepted as written.
func ParseEventTypes(inputs []string) ([]filter.EventType, error) {
	types := make([]filter.EventType, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		eventType, err := filter.ParseEventType(input)
		if err != nil {
			return nil, err
		}
		if err := validateAddress(eventType.Address); err != nil {
			return nil, fmt.Errorf("invalid event type %s: %w", input, err)
		}
		types = append(types, eventType)
	}
	return types, nil
}

func validateAddress(address string) error {
	digits, ok := strings.CutPrefix(address, "0x")
	if !ok {
		return fmt.Errorf("address %s: missing 0x prefix", address)
	}
	if digits == "" {
		return fmt.Errorf("address %s: no digits", address)
	}
	if len(digits) > 64 {
		return fmt.Errorf("address %s: longer than 32 bytes", address)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	if _, err := hexutil.Decode("0x" + digits); err != nil {
		return fmt.Errorf("address %s: %w", address, err)
	}
	return nil
}
