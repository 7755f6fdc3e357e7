package database

import (
	"database/sql"
	"fmt"

	"sosed-bot/model"
)

// FindResidents selects records for a user. Empty building or flatNumber
// means "any"; passing both narrows to the exact (user, building, flat) tuple.
func (i *Instance) FindResidents(telegramID int64, building, flatNumber string) ([]*model.Resident, error) {
	query := `SELECT * FROM residents WHERE telegram_id = $1`
	args := []interface{}{telegramID}

	if building != "" {
		args = append(args, building)
		query += fmt.Sprintf(" AND building = $%d", len(args))
	}
	if flatNumber != "" {
		args = append(args, flatNumber)
		query += fmt.Sprintf(" AND flat_number = $%d", len(args))
	}

	var result []*model.Resident
	if err := i.db.Select(&result, query, args...); err != nil {
		return nil, err
	}

	return result, nil
}

// InsertResident stores a new record with a server-assigned timestamp. A
// unique violation comes back as a raw *pq.Error; callers decide whether the
// duplicate is benign.
func (i *Instance) InsertResident(resident *model.Resident) (*model.Resident, error) {
	rows, err := i.db.NamedQuery(
		`INSERT INTO residents (telegram_id, username, first_name, last_name, building, flat_number, joined_at)
		VALUES (:telegram_id, :username, :first_name, :last_name, :building, :flat_number, now()) RETURNING *`,
		resident,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var result model.Resident
		if err := rows.StructScan(&result); err != nil {
			return nil, err
		}

		return &result, nil
	}

	return nil, sql.ErrNoRows
}

// DeleteResidents removes every record of a user, optionally scoped to one
// building, and reports how many rows went away.
func (i *Instance) DeleteResidents(telegramID int64, building string) (int64, error) {
	query := `DELETE FROM residents WHERE telegram_id = $1`
	args := []interface{}{telegramID}

	if building != "" {
		args = append(args, building)
		query += " AND building = $2"
	}

	res, err := i.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
