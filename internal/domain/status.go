package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

var statusNames = map[Status]string{
	StatusLive:   "live",
	StatusDraft:  "draft",
	StatusHidden: "hidden",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus разбирает название статуса ("live", "draft", "hidden").
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// MarshalJSON отдает статус названием; незаданный статус - пустой строкой.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == 0 {
		return json.Marshal("")
	}
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if name == "" {
		*s = 0
		return nil
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
