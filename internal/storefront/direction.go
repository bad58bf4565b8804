package storefront

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned when a navigation direction is neither left nor right.
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a carousel or hero banner navigation direction.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection accepts "left" or "right" in any case.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
	}
}
