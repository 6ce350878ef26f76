package scoring

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"asclepius/pkg/errors"
)

// parquetReportRow mirrors ReportRow with the schema tags the parquet
// writer needs. Column names stay identical to the CSV header.
type parquetReportRow struct {
	PatientID     string  `parquet:"name=Patient_ID, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	VO2Max        float64 `parquet:"name=VO2_max, type=DOUBLE"`
	HRRecovery    float64 `parquet:"name=HR_recovery_1min, type=DOUBLE"`
	VEVO2Ratio    float64 `parquet:"name=VE_VO2_ratio, type=DOUBLE"`
	Velocity      float64 `parquet:"name=Velocity, type=DOUBLE"`
	Cadence       float64 `parquet:"name=Cadence, type=DOUBLE"`
	StrideTime    float64 `parquet:"name=Stride_time, type=DOUBLE"`
	CardiacScore  float64 `parquet:"name=Cardiac_Score, type=DOUBLE"`
	MobilityScore float64 `parquet:"name=Mobility_Score, type=DOUBLE"`
	FinalScore    float64 `parquet:"name=Final_Score, type=DOUBLE"`
	RecoveryDays  int32   `parquet:"name=Recovery_Days, type=INT32"`
	Suggestions   string  `parquet:"name=Suggestions, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func writeParquetRows(fw source.ParquetFile, rows []ReportRow) error {
	pw, err := writer.NewParquetWriter(fw, new(parquetReportRow), 4)
	if err != nil {
		return errors.Wrap(err, "create parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		row := parquetReportRow{
			PatientID:     r.PatientID,
			VO2Max:        r.VO2Max,
			HRRecovery:    r.HRRecovery,
			VEVO2Ratio:    r.VEVO2Ratio,
			Velocity:      r.Velocity,
			Cadence:       r.Cadence,
			StrideTime:    r.StrideTime,
			CardiacScore:  r.CardiacScore,
			MobilityScore: r.MobilityScore,
			FinalScore:    r.FinalScore,
			RecoveryDays:  int32(r.RecoveryDays),
			Suggestions:   r.Suggestions,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return errors.Wrapf(err, "write parquet row for %s", r.PatientID)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return errors.Wrap(err, "finalize parquet report")
	}
	return nil
}

// MarshalParquet renders the report as an in-memory parquet file.
func MarshalParquet(rows []ReportRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()

	if err := writeParquetRows(fw, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, errors.Wrap(err, "close parquet buffer")
	}

	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteParquetFile writes the report to path in parquet format.
func WriteParquetFile(path string, rows []ReportRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "create parquet file %s", path)
	}

	if err := writeParquetRows(fw, rows); err != nil {
		_ = fw.Close()
		return err
	}

	return fw.Close()
}
