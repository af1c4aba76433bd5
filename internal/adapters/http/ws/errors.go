package ws

import "errors"

// ErrInvalidRoom is returned for a room name that names no ranking.
var ErrInvalidRoom = errors.New("invalid room")
