package domain

import "errors"

var (
	ErrInvalidPlayerIndex       = errors.New("invalid player index")
	ErrNotPlayersTurn           = errors.New("not player's turn")
	ErrCardsNotInHand           = errors.New("cards not in hand")
	ErrInvalidShape             = errors.New("cards do not form a recognized play")
	ErrShapeMismatch            = errors.New("play does not match the shape of the target")
	ErrDoesNotBeatTarget        = errors.New("play does not beat the target")
	ErrMustBeatWithBombOrHigher = errors.New("target is a bomb, only a higher bomb can beat it")
	ErrCannotPassTwiceRunning   = errors.New("cannot pass, player must lead")
	ErrGameAlreadyWon           = errors.New("game is already won")
	ErrEmptyKitty               = errors.New("kitty is empty")
	ErrLandlordAlreadyAssigned  = errors.New("landlord already assigned")
	ErrLandlordNotAssigned      = errors.New("landlord not assigned yet")
	ErrDuplicateCard            = errors.New("card dealt more than once")
	ErrInvalidCard              = errors.New("card is not part of the deck")
)
