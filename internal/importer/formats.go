package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"quiznufi-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// ReadFile picks the decoder from the file extension.
func ReadFile(name string, r io.Reader) ([]domain.Question, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".yaml", ".yml":
		return ReadYAML(r)
	default:
		return nil, fmt.Errorf("unsupported question bank format: %s", name)
	}
}

// ReadCSV decodes rows with the header columns question, correct, time,
// difficulty_level, quiz_area and option_0..option_N (case-insensitive).
// Only question and correct are required.
func ReadCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	type optionCol struct{ n, idx int }
	var options []optionCol
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[name] = i
		if rest, ok := strings.CutPrefix(name, "option_"); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				options = append(options, optionCol{n: n, idx: i})
			}
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].n < options[j].n })
	for _, required := range []string{"question", "correct"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	number := func(rec []string, name string, line int) (int, error) {
		v := field(rec, name)
		if v == "" {
			return 0, nil
		}
		// pandas writes integer columns with missing cells as floats
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: %s: %w", line, name, err)
		}
		return int(f), nil
	}

	var out []domain.Question
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		q := domain.Question{
			Prompt:  field(rec, "question"),
			Correct: field(rec, "correct"),
			Area:    field(rec, "quiz_area"),
		}
		if q.Time, err = number(rec, "time", line); err != nil {
			return nil, err
		}
		if q.Difficulty, err = number(rec, "difficulty_level", line); err != nil {
			return nil, err
		}
		for _, oc := range options {
			if oc.idx < len(rec) && strings.TrimSpace(rec[oc.idx]) != "" {
				q.Options = append(q.Options, strings.TrimSpace(rec[oc.idx]))
			}
		}
		out = append(out, q)
	}
	return out, nil
}

// ReadYAML decodes a list of questions using the same field names as the CSV header.
func ReadYAML(r io.Reader) ([]domain.Question, error) {
	var out []domain.Question
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return out, nil
}
