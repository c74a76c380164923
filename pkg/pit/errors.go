package pit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks fatal network configuration problems detected
// before any solve attempt. Matched with errors.Is.
var ErrConfiguration = errors.New("pipeflow: invalid network configuration")

// Problem is one aggregated configuration defect with full element
// identification.
type Problem struct {
	Table  string
	IDs    []int
	Reason string
}

// ConfigError collects all configuration problems of one build pass so
// the caller sees every broken element at once instead of one error per
// row.
type ConfigError struct {
	Problems []Problem
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid network configuration:")
	for _, p := range e.Problems {
		fmt.Fprintf(&b, " [%s %v: %s]", p.Table, p.IDs, p.Reason)
	}
	return b.String()
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }
