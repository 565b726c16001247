package entity

// TestResult is a single measurement extracted from a laboratory report.
// Values stay strings to preserve formatting such as "<5" or "↑250.0".
type TestResult struct {
	TestName       string `json:"test_name"`
	Results        string `json:"results"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	Flag           string `json:"flag,omitempty"`
}

// HospitalInfo identifies the issuing laboratory and the report type.
type HospitalInfo struct {
	Name       string `json:"name"`
	ReportType string `json:"report_type"`
}

// PatientInfo is the demographic block extracted from a report. SampleDate
// stays a raw string here; parsing into a timestamp happens in the pipeline.
type PatientInfo struct {
	Name            string `json:"name"`
	ID              string `json:"id"`
	AgeSex          string `json:"age_sex"`
	SampleDate      string `json:"sample_date"`
	ReferringDoctor string `json:"referring_doctor"`
}

// LabReport is the normalized extraction output: the category-keyed mapping
// returned by the vision service is already flattened into one ordered
// TestResults sequence. Immutable once produced; only derived measurement
// rows are persisted.
type LabReport struct {
	HospitalInfo HospitalInfo `json:"hospital_info"`
	PatientInfo  PatientInfo  `json:"patient_info"`
	TestResults  []TestResult `json:"test_results"`
}
