package model

import (
	"time"
)

// Resident is one stored (user, building, flat) association. A user may hold
// several records across buildings or flats, but never the same tuple twice.
type Resident struct {
	ID int `db:"id"`

	TelegramID int64  `db:"telegram_id"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`

	Building   string `db:"building"`
	FlatNumber string `db:"flat_number"`

	JoinedAt time.Time `db:"joined_at"`
}
