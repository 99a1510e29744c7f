package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE of unique_violation.
const uniqueViolation = "23505"

// placeholder returns a positional placeholder for PostgreSQL ($n).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns $1 through $n.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// inClause appends values to args and returns "column IN ($k, $k+1, ...)".
func inClause(column string, values []string, args []any) (string, []any) {
	list := make([]string, 0, len(values))
	for _, v := range values {
		args = append(args, v)
		list = append(list, placeholder(len(args)))
	}
	return column + " IN (" + strings.Join(list, ", ") + ")", args
}

// isUniqueViolation reports whether err is a unique_violation from the server.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// marshalStrings encodes a string list as a JSON array, never "null".
func marshalStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalStrings(raw string) ([]string, error) {
	list := []string{}
	if raw == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
