package database

import (
	"github.com/jmoiron/sqlx"

	"sosed-bot/model"
)

type IDatabase interface {
	FindResidents(telegramID int64, building, flatNumber string) ([]*model.Resident, error)
	InsertResident(resident *model.Resident) (*model.Resident, error)
	DeleteResidents(telegramID int64, building string) (int64, error)
}

type Instance struct {
	db *sqlx.DB
}

func NewInstance(db *sqlx.DB) *Instance {
	return &Instance{db: db}
}
