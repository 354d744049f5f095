// Package location defines the capability for obtaining the player's
// current coordinate. Components that need a position take a Provider
// explicitly instead of reading ambient platform state.
package location

import (
	"context"
	"errors"

	"github.com/rakhic/spot-the-op/internal/game"
)

// ErrUnavailable is returned when no current location can be determined
// (permission denied, no fix, no provider configured).
var ErrUnavailable = errors.New("location: unavailable")

// Provider yields the current coordinate on demand.
type Provider interface {
	Current(ctx context.Context) (game.Coordinate, error)
}

// Static is a Provider pinned to a fixed coordinate. Useful for tests and
// for deployments that anchor all custom games to one venue.
type Static struct {
	Coord game.Coordinate
}

func (s Static) Current(ctx context.Context) (game.Coordinate, error) {
	return s.Coord, nil
}

// None is a Provider that never has a location.
type None struct{}

func (None) Current(ctx context.Context) (game.Coordinate, error) {
	return game.Coordinate{}, ErrUnavailable
}
