package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Favorites    []int64   `json:"favorite_movie_ids"`
	CreatedAt    time.Time `json:"created_at"`
}
