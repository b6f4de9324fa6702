package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildDatasetKey places a generated bookstore CSV under its store name and day.
func BuildDatasetKey(bookstore string, generatedAt time.Time) (string, error) {
	name := DatasetFileStem(bookstore)
	if err := validatePathComponent(name, "bookstore name"); err != nil {
		return "", err
	}
	ts := generatedAt.UTC()
	return path.Join(
		"datasets",
		name,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s-%d.csv", name, ts.Unix()),
	), nil
}

// BuildReportKey places one evaluation report file under its run id.
func BuildReportKey(runID, fileName string) (string, error) {
	if err := validatePathComponent(runID, "run id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(fileName, "file name"); err != nil {
		return "", err
	}
	return path.Join("eval", runID, fileName), nil
}

// DatasetFileStem is the bookstore name with spaces replaced by underscores.
func DatasetFileStem(bookstore string) string {
	return strings.ReplaceAll(strings.TrimSpace(bookstore), " ", "_")
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
