package model

type Office struct {
	Base
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
	Status  string `db:"status" json:"status"`
}
