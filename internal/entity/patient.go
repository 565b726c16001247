package entity

import "time"

// Patient is a registered person measurements are recorded against. Patients
// are created through the registration endpoint only; ingestion looks them up
// by name and never creates them.
type Patient struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
