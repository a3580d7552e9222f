package evaluation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is a dataset as lowercase column name -> value rows.
type table []map[string]string

// readTable loads .csv, .json (array of objects) or .xlsx (first sheet, header row).
func readTable(path string) (table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return fromRows(rows), nil
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var objs []map[string]any
		if err := json.Unmarshal(data, &objs); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		out := make(table, 0, len(objs))
		for _, o := range objs {
			row := make(map[string]string, len(o))
			for k, v := range o {
				row[strings.ToLower(strings.TrimSpace(k))] = fmt.Sprint(v)
			}
			out = append(out, row)
		}
		return out, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open Excel: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
		}
		return fromRows(rows), nil
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", ext)
	}
}

func fromRows(rows [][]string) table {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	out := make(table, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(r) {
				row[h] = r[i]
			}
		}
		out = append(out, row)
	}
	return out
}

func pick(row map[string]string, names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := row[n]; ok {
			return v, true
		}
	}
	return "", false
}

// LoadAnswerPairs reads expected/generated answer pairs. Columns: expected (or
// expected_answer) and generated (or bot_answer, answer).
func LoadAnswerPairs(path string) ([]AnswerPair, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	pairs := make([]AnswerPair, 0, len(t))
	for i, row := range t {
		exp, ok1 := pick(row, "expected", "expected_answer")
		gen, ok2 := pick(row, "generated", "bot_answer", "answer")
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("row %d: missing expected or generated column", i+1)
		}
		pairs = append(pairs, AnswerPair{Expected: exp, Generated: gen})
	}
	return pairs, nil
}

// LoadSimilarityPairs reads sentence pairs with a 0-5 human score. Columns: sentence1,
// sentence2 and score (or similarity_score).
func LoadSimilarityPairs(path string) ([]SimilarityPair, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	pairs := make([]SimilarityPair, 0, len(t))
	for i, row := range t {
		s1, ok1 := pick(row, "sentence1")
		s2, ok2 := pick(row, "sentence2")
		raw, ok3 := pick(row, "score", "similarity_score")
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("row %d: missing sentence1, sentence2 or score column", i+1)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid score %q: %w", i+1, raw, err)
		}
		pairs = append(pairs, SimilarityPair{Sentence1: s1, Sentence2: s2, Score: score})
	}
	return pairs, nil
}
