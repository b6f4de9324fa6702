package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Example is one line of the evaluation dataset.
type Example struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func ReadDatasetFile(path string) ([]Example, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	return ReadDataset(file)
}

// ReadDataset parses JSON Lines, skipping blank lines.
func ReadDataset(r io.Reader) ([]Example, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var examples []Example
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var example Example
		if err := json.Unmarshal([]byte(text), &example); err != nil {
			return nil, fmt.Errorf("decode dataset line %d: %w", line, err)
		}
		if strings.TrimSpace(example.Question) == "" {
			return nil, fmt.Errorf("dataset line %d has no question", line)
		}
		examples = append(examples, example)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return examples, nil
}
