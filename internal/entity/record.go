package entity

import "time"

// MeasurementRecord is one persisted (timestamp, patient, test, value, unit,
// lab) tuple. Rows are immutable after creation; a lab report produces many
// rows sharing the same timestamp and lab name.
type MeasurementRecord struct {
	ID          int64     `db:"id" json:"id" csv:"id"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp" csv:"timestamp"`
	PatientID   int64     `db:"patient_id" json:"patient_id" csv:"-"`
	PatientName string    `db:"patient_name" json:"patient" csv:"patient"`
	TestName    string    `db:"test_name" json:"test_name" csv:"test_name"`
	Value       string    `db:"value" json:"value" csv:"value"`
	Unit        string    `db:"unit" json:"unit,omitempty" csv:"unit"`
	LabName     string    `db:"lab_name" json:"lab_name,omitempty" csv:"lab_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at" csv:"-"`
}
