package catalog

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
)

// maxReportedProblems ограничивает длину текста ошибки на больших каталогах.
const maxReportedProblems = 20

// DataError перечисляет все проблемы каталога, найденные за один проход.
type DataError struct {
	Source   string
	Problems []string
	Cause    error
}

func (d *DataError) Error() string {
	shown := d.Problems
	if len(shown) > maxReportedProblems {
		shown = shown[:maxReportedProblems]
	}

	msg := fmt.Sprintf("catalog %s: %s", d.Source, strings.Join(shown, "; "))
	if rest := len(d.Problems) - len(shown); rest > 0 {
		msg += fmt.Sprintf(" (and %d more)", rest)
	}
	return msg
}

func (d *DataError) Unwrap() []error {
	if d.Cause != nil {
		return []error{e.ErrCatalogData, d.Cause}
	}
	return []error{e.ErrCatalogData}
}

func newDataError(source string, cause error, problems ...string) *DataError {
	return &DataError{Source: source, Problems: problems, Cause: cause}
}
