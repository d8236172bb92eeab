package invoice

import (
	"fmt"
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`\d+`)

// NextNumber derives the next invoice number from history: the first run of
// digits in each existing number is parsed, the maximum is incremented, and
// the result is zero-padded to three digits. An empty history yields INV-001;
// the counter is unbounded beyond 999 (INV-1000, ...).
func NextNumber(history []Record) string {
	max := 0
	for _, record := range history {
		match := digitRun.FindString(record.InvoiceNumber)
		if match == "" {
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("INV-%03d", max+1)
}
