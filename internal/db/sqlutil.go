package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cryptofolio/api/internal/apperr"
)

// partialUpdate builds the SET clause of an UPDATE from whatever fields are
// present in updates. columns is the allow-list mapping request field names to
// their storage columns; anything outside it is rejected, as is an empty
// payload (an empty SET clause is not valid SQL). Fields are sorted so the
// generated statement is deterministic. Placeholders start at $1; the returned
// args line up with them.
func partialUpdate(updates map[string]any, columns map[string]string) (string, []any, error) {
	if len(updates) == 0 {
		return "", nil, apperr.New(apperr.BadRequest, "no data to update")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if _, ok := columns[field]; !ok {
			return "", nil, apperr.BadRequestf("field %q cannot be updated", field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setCols := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, field := range fields {
		setCols = append(setCols, fmt.Sprintf("%s = $%d", columns[field], i+1))
		args = append(args, updates[field])
	}

	return strings.Join(setCols, ", "), args, nil
}
