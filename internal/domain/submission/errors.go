package submission

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidToken = errors.New("form verification failed")
	ErrSpamDetected = errors.New("spam detected")
	ErrInvalidID    = errors.New("invalid submission id")
)

// ValidationError lists the fields that failed validation and the rule each
// one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, rule := range e.Fields {
		names = append(names, fmt.Sprintf("%s:%s", name, rule))
	}
	sort.Strings(names)
	return "invalid submission: " + strings.Join(names, ", ")
}
