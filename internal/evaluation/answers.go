package evaluation

import (
	"strconv"

	"github.com/hyperjump/lexilaw/pkg/utils"
)

const decimals = 4

// AnswerPair is a reference answer and the assistant's answer to the same question.
type AnswerPair struct {
	Expected  string `json:"expected"`
	Generated string `json:"generated"`
}

// AnswerRow is the score of one pair, or the average row.
type AnswerRow struct {
	Pair   string  `json:"Pair"`
	Rouge1 float64 `json:"ROUGE-1"`
	RougeL float64 `json:"ROUGE-L"`
	Cosine float64 `json:"Cosine Similarity"`
}

// EvaluateAnswers scores each pair and appends an "Average" row. Values are rounded to
// four decimals; averages are taken over unrounded scores.
func EvaluateAnswers(pairs []AnswerPair) []AnswerRow {
	if len(pairs) == 0 {
		return nil
	}
	rows := make([]AnswerRow, 0, len(pairs)+1)
	var sum1, sumL, sumCos float64
	for i, p := range pairs {
		r1 := Rouge1(p.Expected, p.Generated)
		rl := RougeL(p.Expected, p.Generated)
		cos := TFIDFCosine(p.Expected, p.Generated)
		sum1 += r1
		sumL += rl
		sumCos += cos
		rows = append(rows, AnswerRow{
			Pair:   strconv.Itoa(i + 1),
			Rouge1: utils.Round(r1, decimals),
			RougeL: utils.Round(rl, decimals),
			Cosine: utils.Round(cos, decimals),
		})
	}
	n := float64(len(pairs))
	rows = append(rows, AnswerRow{
		Pair:   "Average",
		Rouge1: utils.Round(sum1/n, decimals),
		RougeL: utils.Round(sumL/n, decimals),
		Cosine: utils.Round(sumCos/n, decimals),
	})
	return rows
}

func (r AnswerRow) cells() []string {
	return []string{r.Pair, fmtScore(r.Rouge1), fmtScore(r.RougeL), fmtScore(r.Cosine)}
}

var answerHeader = []string{"Pair", "ROUGE-1", "ROUGE-L", "Cosine Similarity"}

func fmtScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
