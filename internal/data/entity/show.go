package entity

type Show struct {
	Record
	Name            string   `db:"name"`
	Description     *string  `db:"description"`
	Language        *string  `db:"language"`
	Genre           *string  `db:"genre"`
	DurationMinutes *int     `db:"duration"`
	Rating          *float64 `db:"rating"`
	PosterURL       *string  `db:"poster_url"`
}
