package models

// MovieSummary is the subset of catalog search fields exposed to clients.
// Field names on the wire follow the upstream catalog schema.
type MovieSummary struct {
	FilmKinopoiskID int64  `json:"film_kinopoisk_id"`
	NameEn          string `json:"nameEn"`
	NameRu          string `json:"nameRu"`
	Year            string `json:"year"`
}
