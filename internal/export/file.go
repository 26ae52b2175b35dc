package export

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSessionsCSV Format = "sessions-csv"
	FormatJSON        Format = "json"
	FormatYAML        Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatSessionsCSV, FormatJSON, FormatYAML}

// ParseFormat accepts a format name, case-insensitively. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return FormatYAML, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatSessionsCSV:
		return WriteSessionsCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// ToFile writes r to path in format f.
func ToFile(path string, f Format, r Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s file: %w", f, err)
	}
	if err := Write(file, f, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
