package game

import "errors"

// Invalid-action errors. All are recoverable: the game is left unchanged and
// the submitter may retry with a corrected action.
var (
	ErrNotPlayersTurn    = errors.New("it's not the player's turn")
	ErrGameNotStarted    = errors.New("the game has not started yet")
	ErrGameStarted       = errors.New("the game has already started")
	ErrGameFinished      = errors.New("the game has already finished")
	ErrNotEnoughPlayers  = errors.New("not enough players to start the game")
	ErrGameFull          = errors.New("the game is already full")
	ErrPlayerInGame      = errors.New("player is already in the game")
	ErrUnknownPlayer     = errors.New("player is not in the game")
	ErrUnknownArea       = errors.New("area does not exist")
	ErrAreasNotAdjacent  = errors.New("areas are not adjacent")
	ErrAreaNotOwned      = errors.New("area is not owned by the player")
	ErrSelfAttack        = errors.New("a player cannot attack their own area")
	ErrNotEnoughDice     = errors.New("area does not have enough dice to attack")
	ErrAttackLimit       = errors.New("attack limit for this turn reached")
)
