package idx

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseMode resolves a mode name from option files and CLI flags.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "hydraulics", "":
		return Hydraulics, nil
	case "heat":
		return Heat, nil
	case "sequential":
		return Sequential, nil
	case "bidirectional":
		return Bidirectional, nil
	}
	return Hydraulics, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalYAML() (any, error) { return m.String(), nil }

func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
