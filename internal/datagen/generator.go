package datagen

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/prompt"
	"github.com/bookrag/bookrag/internal/storage"
)

const SummaryUnavailable = "[Summary not available]"

type SeedRow map[string]string

type Dataset struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

func (d Dataset) Header() []string {
	header := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		header = append(header, col.Alias)
	}
	return header
}

// Generator builds heterogeneous bookstore datasets from seed rows. Summaries
// come from Model, which callers wrap in a rate limiter.
type Generator struct {
	Catalog Catalog
	Model   llm.Model
	Rand    *rand.Rand
	Logger  *slog.Logger
}

func NewGenerator(catalog Catalog, model llm.Model, seed int64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Catalog: catalog,
		Model:   model,
		Rand:    rand.New(rand.NewSource(seed)),
		Logger:  logger,
	}
}

func (g *Generator) Generate(ctx context.Context, name string, numBooks int, seed []SeedRow) (Dataset, error) {
	if strings.TrimSpace(name) == "" {
		return Dataset{}, fmt.Errorf("bookstore name is required")
	}
	if numBooks <= 0 {
		return Dataset{}, fmt.Errorf("number of books must be positive")
	}
	columns := GenerateSchema(g.Rand, g.Catalog)
	dataset := Dataset{Name: name, Columns: columns}
	g.Logger.InfoContext(ctx, "dataset_schema_generated",
		slog.String("bookstore", name),
		slog.Any("columns", dataset.Header()),
	)

	if len(seed) < numBooks {
		g.Logger.WarnContext(ctx, "seed_data_too_small",
			slog.Int("requested", numBooks),
			slog.Int("available", len(seed)),
		)
		numBooks = len(seed)
	}

	for i, idx := range g.Rand.Perm(len(seed))[:numBooks] {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		row := make([]string, len(columns))
		for c, col := range columns {
			row[c] = g.value(ctx, col.Field, seed[idx])
		}
		dataset.Rows = append(dataset.Rows, row)
		g.Logger.DebugContext(ctx, "dataset_row_generated", slog.Int("row", i+1), slog.Int("total", numBooks))
	}
	return dataset, nil
}

func (g *Generator) value(ctx context.Context, fieldName string, row SeedRow) string {
	field, ok := g.Catalog.field(fieldName)
	if !ok {
		return ""
	}
	if field.Generated {
		return g.summary(ctx, row)
	}
	raw := row[field.Source]
	if field.Parse == ParseLeadingFloat {
		return leadingFloat(raw)
	}
	return raw
}

func (g *Generator) summary(ctx context.Context, row SeedRow) string {
	title := seedValue(row, g.sourceOf("title"), "Unknown Title")
	author := seedValue(row, g.sourceOf("author"), "Unknown Author")
	if g.Model == nil {
		return SummaryUnavailable
	}
	completion, err := g.Model.Complete(ctx, llm.Request{Messages: prompt.SummaryMessages(title, author)})
	if err != nil {
		g.Logger.WarnContext(ctx, "summary_generation_failed",
			slog.String("title", title),
			slog.Any("error", err),
		)
		return SummaryUnavailable
	}
	return strings.ReplaceAll(strings.TrimSpace(completion.Text), "\n", " ")
}

func (g *Generator) sourceOf(fieldName string) string {
	field, ok := g.Catalog.field(fieldName)
	if !ok {
		return fieldName
	}
	return field.Source
}

func seedValue(row SeedRow, key, fallback string) string {
	if value, ok := row[key]; ok && value != "" {
		return value
	}
	return fallback
}

// leadingFloat turns "4.6 out of 5 stars" into "4.6". Unparseable input
// yields an empty cell.
func leadingFloat(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// LoadSeed reads the seed CSV into rows keyed by header name.
func LoadSeed(path string) ([]SeedRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed csv %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("seed csv %s is empty", path)
	}
	header := records[0]
	rows := make([]SeedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(SeedRow, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimPrefix(name, "\ufeff")] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes the dataset to dir as <name with underscores>.csv.
func WriteCSV(dir string, dataset Dataset) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, storage.DatasetFileStem(dataset.Name)+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(dataset.Header()); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(dataset.Rows); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write rows: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
