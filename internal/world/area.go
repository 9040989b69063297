package world

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Dice bounds for a single area. An area never holds zero dice once the game
// has started, and never more than eight.
const (
	MinDice = 1
	MaxDice = 8
)

var (
	ErrStackFull  = errors.New("stack is already at maximum dice")
	ErrStackEmpty = errors.New("stack cannot drop below one die")
)

// Stack is the bounded dice counter held by one area. The zero value is a
// stack of one die.
type Stack struct {
	count int
}

// NewStack returns a stack holding n dice, clamped to [MinDice, MaxDice].
func NewStack(n int) Stack {
	if n < MinDice {
		n = MinDice
	}
	if n > MaxDice {
		n = MaxDice
	}
	return Stack{count: n}
}

// Count returns the number of dice in the stack.
func (s Stack) Count() int {
	if s.count < MinDice {
		return MinDice
	}
	return s.count
}

// Full reports whether the stack is at MaxDice.
func (s Stack) Full() bool {
	return s.Count() >= MaxDice
}

// CanAttack reports whether the stack has enough dice to launch an attack.
// An area with a single die cannot attack.
func (s Stack) CanAttack() bool {
	return s.Count() > MinDice
}

// Increment adds one die, failing when the stack is full.
func (s *Stack) Increment() error {
	if s.Full() {
		return ErrStackFull
	}
	s.count = s.Count() + 1
	return nil
}

// Split empties the stack down to a single die and returns the number of
// dice moved out. Fails when only one die is present.
func (s *Stack) Split() (int, error) {
	if !s.CanAttack() {
		return 0, ErrStackEmpty
	}
	moved := s.Count() - 1
	s.count = MinDice
	return moved, nil
}

// Defeat resets the stack to a single die after a repelled attack.
func (s *Stack) Defeat() {
	s.count = MinDice
}

// MarshalJSON encodes the stack as its bare dice count.
func (s Stack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Count())
}

// UnmarshalJSON decodes a bare dice count, rejecting out-of-range values.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < MinDice || n > MaxDice {
		return fmt.Errorf("dice count %d outside [%d,%d]", n, MinDice, MaxDice)
	}
	s.count = n
	return nil
}

// Area is a contiguous cluster of tiles, the unit of ownership and of dice
// storage. Tiles are immutable after map generation; Owner is the zero UUID
// while the area is unclaimed during setup.
type Area struct {
	ID    uuid.UUID `json:"id"`
	Owner uuid.UUID `json:"owner"`
	Tiles []Tile    `json:"tiles"`
	Stack Stack     `json:"dice"`
}

// NewArea creates an unowned area over the given tiles with a single die.
func NewArea(tiles []Tile) *Area {
	return &Area{
		ID:    uuid.New(),
		Tiles: tiles,
		Stack: NewStack(MinDice),
	}
}

// OwnedBy reports whether the area belongs to the given player.
func (a *Area) OwnedBy(playerID uuid.UUID) bool {
	return a.Owner == playerID && playerID != uuid.Nil
}

// Unowned reports whether the area has no owner yet.
func (a *Area) Unowned() bool {
	return a.Owner == uuid.Nil
}

// AdjacentTo reports whether the two areas share at least one tile border.
func (a *Area) AdjacentTo(other *Area) bool {
	for _, t := range a.Tiles {
		for _, ot := range other.Tiles {
			if t.Adjacent(ot) {
				return true
			}
		}
	}
	return false
}
