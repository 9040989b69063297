package game

import (
	"github.com/google/uuid"
)

// MaxPlayers is the seat limit for one game.
const MaxPlayers = 6

// MaxReserve caps the dice a player can bank between turns. Reinforcements
// past the cap are discarded, never silently lost: distribution reports the
// discard and it is logged.
const MaxReserve = 20

// Color is a player color from the fixed six-value palette, assigned by
// join order.
type Color uint8

const (
	ColorRed Color = iota
	ColorGreen
	ColorBlue
	ColorYellow
	ColorPurple
	ColorOrange
)

var colorNames = [MaxPlayers]string{"red", "green", "blue", "yellow", "purple", "orange"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// Player is a seated participant. Turn order is the player's position in the
// game's player slice; Reserve holds bonus dice not yet placed because of
// the per-area cap.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Color      Color     `json:"color"`
	Reserve    int       `json:"reserve"`
	Eliminated bool      `json:"eliminated"`
}

// StoreDice banks leftover reinforcement dice, clamped to MaxReserve.
// Returns how many dice were discarded by the clamp.
func (p *Player) StoreDice(amount int) int {
	p.Reserve += amount
	if p.Reserve > MaxReserve {
		discarded := p.Reserve - MaxReserve
		p.Reserve = MaxReserve
		return discarded
	}
	return 0
}

// TakeReserve empties the reserve and returns what was stored.
func (p *Player) TakeReserve() int {
	stored := p.Reserve
	p.Reserve = 0
	return stored
}
