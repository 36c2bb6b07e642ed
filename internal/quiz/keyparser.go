package quiz

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mroshb/quiz_bot/pkg/utils"
)

// Choice letters accepted for every question
const Letters = "ABCD"

// keyPattern extracts "<number><separator><letter>" tokens. The separator
// run may be empty ("12C"), may use any Unicode space and anything that does
// not match is ignored.
var keyPattern = regexp.MustCompile(`(\d+)[.\-\s\p{Zs}]*([A-Da-d])`)

// AnswerKey maps question number to an upper-case choice letter. Iteration
// order for display and scoring is always ascending question number.
type AnswerKey map[int]string

// ParseKey extracts an AnswerKey from free text such as "1-A 2.b 3 C".
// A number seen twice keeps its last letter. No matches yields an empty key,
// never an error.
func ParseKey(text string) AnswerKey {
	key := make(AnswerKey)
	for _, m := range keyPattern.FindAllStringSubmatch(utils.NormalizeDigits(text), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// more digits than an int holds
			continue
		}
		key[n] = strings.ToUpper(m[2])
	}
	return key
}

// KeyRow is one (number, letter) pair from tabular input
type KeyRow struct {
	Number int
	Value  string
}

// KeyFromRows is the structured entry point for spreadsheet input. Rows are
// flattened into the same token stream ParseKey reads, so a table and its
// textual rendering always give the same key.
func KeyFromRows(rows []KeyRow) AnswerKey {
	return ParseKey(RowsToText(rows))
}

// RowsToText renders rows as "n-V" tokens
func RowsToText(rows []KeyRow) string {
	tokens := make([]string, 0, len(rows))
	for _, r := range rows {
		tokens = append(tokens, fmt.Sprintf("%d-%s", r.Number, strings.ToUpper(strings.TrimSpace(r.Value))))
	}
	return strings.Join(tokens, " ")
}

// Numbers returns the question numbers in ascending order
func (k AnswerKey) Numbers() []int {
	nums := make([]int, 0, len(k))
	for n := range k {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func (k AnswerKey) Len() int {
	return len(k)
}

// String renders the key in canonical "1-A 2-B" form
func (k AnswerKey) String() string {
	nums := k.Numbers()
	tokens := make([]string, 0, len(nums))
	for _, n := range nums {
		tokens = append(tokens, fmt.Sprintf("%d-%s", n, k[n]))
	}
	return strings.Join(tokens, " ")
}

// NormalizeLetter upper-cases s and reports whether it is a valid choice
func NormalizeLetter(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || !strings.Contains(Letters, s) {
		return "", false
	}
	return s, true
}
