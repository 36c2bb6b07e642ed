// Package ingest turns uploaded answer-key spreadsheets into answer keys.
package ingest

import (
	"io"
	"strconv"
	"strings"

	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"github.com/mroshb/quiz_bot/pkg/utils"
	"github.com/xuri/excelize/v2"
)

var (
	answerHeaders = []string{"correct", "answer", "javob"}
	numberHeaders = []string{"number", "n", "num", "question"}
)

// ReadWorkbook extracts an answer key from the first sheet of an xlsx file.
// The first row is a header row. Columns are tried in this order:
//
//  1. a column titled correct/answer/javob, numbered by a number/n/num/question
//     column when present and by data row position otherwise
//  2. the first column holding any cell that looks like "1-A", header
//     included; every such cell in it is read as key text
//  3. single-letter A-D cells of the first column, numbered by row position
func ReadWorkbook(r io.Reader) (quiz.AnswerKey, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "file is not a readable xlsx workbook")
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read sheet")
	}

	key := KeyFromRows(rows)
	if key.Len() == 0 {
		return nil, errors.New(errors.ErrCodeMalformed, "no answer keys found in file")
	}
	return key, nil
}

// KeyFromRows applies the column rules to raw sheet rows, header first
func KeyFromRows(rows [][]string) quiz.AnswerKey {
	if len(rows) == 0 {
		return quiz.AnswerKey{}
	}
	header, data := rows[0], rows[1:]

	if col := findColumn(header, answerHeaders); col >= 0 {
		return quiz.KeyFromRows(answerColumnRows(data, col, findColumn(header, numberHeaders)))
	}

	if text, ok := keyTextColumn(rows); ok {
		return quiz.ParseKey(text)
	}

	var keyRows []quiz.KeyRow
	for i, row := range data {
		if l, ok := quiz.NormalizeLetter(cell(row, 0)); ok {
			keyRows = append(keyRows, quiz.KeyRow{Number: i + 1, Value: l})
		}
	}
	return quiz.KeyFromRows(keyRows)
}

func answerColumnRows(data [][]string, answerCol, numberCol int) []quiz.KeyRow {
	keyRows := make([]quiz.KeyRow, 0, len(data))
	for i, row := range data {
		number := i + 1
		if numberCol >= 0 {
			n, err := strconv.Atoi(utils.NormalizeDigits(strings.TrimSpace(cell(row, numberCol))))
			if err != nil {
				continue
			}
			number = n
		}
		keyRows = append(keyRows, quiz.KeyRow{Number: number, Value: cell(row, answerCol)})
	}
	return keyRows
}

// keyTextColumn joins the matching cells of the first column that has any.
// The header row is included so a key typed into A1 alone is still found.
func keyTextColumn(rows [][]string) (string, bool) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	for col := 0; col < width; col++ {
		var parts []string
		for _, row := range rows {
			if c := cell(row, col); quiz.ParseKey(c).Len() > 0 {
				parts = append(parts, strings.TrimSpace(c))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " "), true
		}
	}
	return "", false
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
