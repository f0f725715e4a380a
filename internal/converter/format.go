package converter

import (
	"fmt"
	"strings"

	"github.com/mcncl/toonkit/internal/errors"
)

// Format identifies one of the supported text representations.
type Format int

const (
	JSON Format = iota
	TOON
	CSV
	YAML
	XML
)

// AllFormats lists every Format in display order.
func AllFormats() []Format {
	return []Format{JSON, TOON, CSV, YAML, XML}
}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case TOON:
		return "toon"
	case CSV:
		return "csv"
	case YAML:
		return "yaml"
	case XML:
		return "xml"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias
// for yaml.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "toon":
		return TOON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	case "xml":
		return XML, nil
	}
	return 0, errors.NewInputError(errors.KindUnsupportedFormat, fmt.Sprintf("unsupported format %q", name), nil)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
