package eval

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/bookrag/bookrag/internal/storage"
)

var csvHeader = []string{
	"question",
	"reference_answer",
	"answer",
	"correct",
	"correctness_explanation",
	"relevant",
	"relevance_explanation",
	"error",
	"latency_ms",
}

func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Question,
			row.ReferenceAnswer,
			row.Answer,
			strconv.FormatBool(row.Correct),
			row.CorrectnessExplanation,
			strconv.FormatBool(row.Relevant),
			row.RelevanceExplanation,
			row.Error,
			strconv.FormatInt(row.LatencyMS, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func WriteParquet(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Files lists the report artifacts written to disk.
type Files struct {
	CSV     string
	Parquet string
}

// WriteFiles writes results.csv and results.parquet into dir.
func WriteFiles(dir string, report Report) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create report dir %s: %w", dir, err)
	}
	files := Files{
		CSV:     filepath.Join(dir, "results.csv"),
		Parquet: filepath.Join(dir, "results.parquet"),
	}
	if err := writeFile(files.CSV, func(w io.Writer) error { return WriteCSV(w, report.Rows) }); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.Parquet, func(w io.Writer) error { return WriteParquet(w, report.Rows) }); err != nil {
		return Files{}, err
	}
	return files, nil
}

// Publish uploads both report files under eval/<run id>/, tagged with the
// run's summary scores.
func Publish(ctx context.Context, store storage.ObjectStore, report Report, files Files) ([]storage.ObjectInfo, error) {
	metadata := map[string]string{
		"run-id":         report.RunID,
		"examples":       strconv.Itoa(len(report.Rows)),
		"accuracy":       strconv.FormatFloat(report.Accuracy(), 'f', 4, 64),
		"relevance-rate": strconv.FormatFloat(report.RelevanceRate(), 'f', 4, 64),
	}
	uploads := []struct {
		path        string
		contentType string
	}{
		{path: files.CSV, contentType: "text/csv"},
		{path: files.Parquet, contentType: "application/vnd.apache.parquet"},
	}
	infos := make([]storage.ObjectInfo, 0, len(uploads))
	for _, upload := range uploads {
		key, err := storage.BuildReportKey(report.RunID, filepath.Base(upload.path))
		if err != nil {
			return infos, err
		}
		info, err := storage.UploadFile(ctx, store, key, upload.path, storage.PutOptions{
			ContentType: upload.contentType,
			Metadata:    metadata,
		})
		if err != nil {
			return infos, fmt.Errorf("upload %s: %w", upload.path, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
