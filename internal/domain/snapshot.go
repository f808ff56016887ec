package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

// MarshalCart encodes the cart as a JSON array. An empty cart encodes as "[]".
func MarshalCart(c Cart) (string, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cart failed: %w", err)
	}
	return string(data), nil
}

// UnmarshalCart decodes a stored snapshot. Older snapshots may repeat an id
// once per add; those rows are folded into the first one with their
// quantities summed. Rows with quantity below 1 are dropped. Only unparsable
// data and empty ids are rejected.
func UnmarshalCart(data string) (Cart, error) {
	var rows Cart
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	c := make(Cart, 0, len(rows))
	for i, p := range rows {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: item %d has empty id", ErrInvalidSnapshot, i)
		}
		if p.Quantity < 1 {
			continue
		}
		if j := c.Index(p.ID); j >= 0 {
			c[j].Quantity += p.Quantity
			continue
		}
		c = append(c, p)
	}
	return c, nil
}

// Validate reports whether c holds unique, non-empty ids with quantity >= 1.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i, p := range c {
		if p.ID == "" {
			return fmt.Errorf("%w: item %d has empty id", ErrInvalidSnapshot, i)
		}
		if p.Quantity < 1 {
			return fmt.Errorf("%w: item %q has quantity %d", ErrInvalidSnapshot, p.ID, p.Quantity)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidSnapshot, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
