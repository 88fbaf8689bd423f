package providers

import (
	"fmt"
	"studyd/internal/structures"
	"time"
)

func NewLocation(conf *structures.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(conf.Board.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", conf.Board.Timezone, err)
	}
	return loc, nil
}
