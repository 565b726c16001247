package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

// Defaults substituted for missing optionals so downstream steps never see
// an empty string where a value is expected.
const (
	DefaultHospitalName = "Unknown Hospital"
	DefaultReportType   = "Laboratory Report"
	DefaultPatientName  = "Unknown Patient"
	DefaultSampleDate   = "01-01-1970 12:00 AM"
)

// ExtractJSONObject strips an optional markdown code fence and slices the
// response down to the outermost JSON object. Models occasionally wrap the
// payload in prose or ```json fences despite instructions.
func ExtractJSONObject(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// reportWire is the raw shape returned by the extraction service.
type reportWire struct {
	HospitalInfo entity.HospitalInfo `json:"hospital_info"`
	PatientInfo  entity.PatientInfo  `json:"patient_info"`
	Biochemistry json.RawMessage     `json:"biochemistry_results"`
}

// NormalizeReport turns a schema-valid extraction payload into a LabReport:
// the category-keyed result map is flattened into one sequence preserving
// document order, and missing optionals receive fixed defaults.
func NormalizeReport(raw []byte, logger *slog.Logger) (*entity.LabReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var wire reportWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	results, err := flattenCategories(wire.Biochemistry, logger)
	if err != nil {
		return nil, err
	}

	report := &entity.LabReport{
		HospitalInfo: wire.HospitalInfo,
		PatientInfo:  wire.PatientInfo,
		TestResults:  results,
	}
	applyDefaults(report)
	return report, nil
}

// flattenCategories walks the category map in document order and concatenates
// every list value. A category whose value is not a list is skipped with a
// warning rather than failing the extraction.
func flattenCategories(raw json.RawMessage, logger *slog.Logger) ([]entity.TestResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode biochemistry_results: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("biochemistry_results is not an object")
	}

	var out []entity.TestResult
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode category name: %w", err)
		}
		category, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode category %q: %w", category, err)
		}

		var list []entity.TestResult
		if err := json.Unmarshal(value, &list); err != nil {
			logger.Warn("extract.category.skipped", "category", category, "reason", "value is not a list")
			continue
		}
		out = append(out, list...)
	}

	return out, nil
}

func applyDefaults(r *entity.LabReport) {
	if strings.TrimSpace(r.HospitalInfo.Name) == "" {
		r.HospitalInfo.Name = DefaultHospitalName
	}
	if strings.TrimSpace(r.HospitalInfo.ReportType) == "" {
		r.HospitalInfo.ReportType = DefaultReportType
	}
	if strings.TrimSpace(r.PatientInfo.Name) == "" {
		r.PatientInfo.Name = DefaultPatientName
	}
	if strings.TrimSpace(r.PatientInfo.SampleDate) == "" {
		r.PatientInfo.SampleDate = DefaultSampleDate
	}
}
