package scoring

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"asclepius/internal/domain/features"
	"asclepius/pkg/errors"

	"github.com/shopspring/decimal"
)

// SuggestionSeparator joins recommendation sentences into the report cell.
const SuggestionSeparator = "; "

// ReportColumns is the fixed discharge report header, in output order.
var ReportColumns = []string{
	"Patient_ID",
	"VO2_max",
	"HR_recovery_1min",
	"VE_VO2_ratio",
	"Velocity",
	"Cadence",
	"Stride_time",
	"Cardiac_Score",
	"Mobility_Score",
	"Final_Score",
	"Recovery_Days",
	"Suggestions",
}

// ReportRow is one subject's line in the discharge report. Score columns are
// already rounded to two decimals.
type ReportRow struct {
	PatientID     string  `json:"patient_id"`
	VO2Max        float64 `json:"vo2_max"`
	HRRecovery    float64 `json:"hr_recovery_1min"`
	VEVO2Ratio    float64 `json:"ve_vo2_ratio"`
	Velocity      float64 `json:"velocity"`
	Cadence       float64 `json:"cadence"`
	StrideTime    float64 `json:"stride_time"`
	CardiacScore  float64 `json:"cardiac_score"`
	MobilityScore float64 `json:"mobility_score"`
	FinalScore    float64 `json:"final_score"`
	RecoveryDays  int     `json:"recovery_days"`
	Suggestions   string  `json:"suggestions"`
}

// BuildReport flattens scoring results into report rows, preserving the
// order in which the results were produced.
func BuildReport(results []*Result) []ReportRow {
	rows := make([]ReportRow, 0, len(results))

	for _, res := range results {
		if res == nil || res.Assessment == nil {
			continue
		}

		a := res.Assessment
		scores := a.Scores()

		rows = append(rows, ReportRow{
			PatientID:     a.SubjectID,
			VO2Max:        res.Features[features.VO2Max],
			HRRecovery:    res.Features[features.HRRecovery1Min],
			VEVO2Ratio:    res.Features[features.VEVO2Ratio],
			Velocity:      res.Features[features.Velocity],
			Cadence:       res.Features[features.Cadence],
			StrideTime:    res.Features[features.StrideTime],
			CardiacScore:  roundScore(scores.Cardiac),
			MobilityScore: roundScore(scores.Mobility),
			FinalScore:    roundScore(scores.Final),
			RecoveryDays:  a.RecoveryDays,
			Suggestions:   strings.Join(a.Recommendations, SuggestionSeparator),
		})
	}

	return rows
}

// WriteCSV renders rows with the fixed report header.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ReportColumns); err != nil {
		return errors.Wrap(err, "write report header")
	}

	for _, row := range rows {
		record := []string{
			row.PatientID,
			featureCell(row.VO2Max),
			featureCell(row.HRRecovery),
			featureCell(row.VEVO2Ratio),
			featureCell(row.Velocity),
			featureCell(row.Cadence),
			featureCell(row.StrideTime),
			scoreCell(row.CardiacScore),
			scoreCell(row.MobilityScore),
			scoreCell(row.FinalScore),
			strconv.Itoa(row.RecoveryDays),
			row.Suggestions,
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write report row for %s", row.PatientID)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the report to path, replacing any previous report.
func WriteCSVFile(path string, rows []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create report file %s", path)
	}

	if err := WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func roundScore(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func scoreCell(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func featureCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
