package table

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Canonical column names.
const (
	ColDataFolderName = "DataFolderName"
	ColDateRun        = "DateRun"
	ColCartridgeNum   = "CartridgeNum"
	ColSpecies        = "Species"
	ColRetentionTime  = "RetentionTime"
	ColMatch1         = "Match1"
	ColMatch1Quality  = "Match1.Quality"
	ColMatch2         = "Match2"
	ColMatch2Quality  = "Match2.Quality"
	ColMatch3         = "Match3"
	ColMatch3Quality  = "Match3.Quality"
	ColComments       = "Comments"
	ColCompound       = "Compound"
	ColClass          = "Class"
	ColMatchScore     = "MatchScore"
)

// LegacyCommentsHeader is the long Comments header used by OLD workbooks.
const LegacyCommentsHeader = "Comments (note here, for example, if there are common names and official IUPAC names that are actually the same compound)"

// OutputColumns is the canonical column order of a standardized sheet.
var OutputColumns = []string{
	ColDataFolderName, ColDateRun, ColCartridgeNum, ColSpecies, ColRetentionTime,
	ColMatch1, ColMatch1Quality, ColMatch2, ColMatch2Quality, ColMatch3, ColMatch3Quality,
	ColComments, ColCompound, ColClass, ColMatchScore,
}

// NewMarkers are the columns only a NEW layout carries.
var NewMarkers = []string{ColSpecies, ColCompound, ColClass, ColMatchScore}

var minimalOld = []string{ColDateRun, ColCartridgeNum, ColMatch1}

// Schema identifies one of the two historical layouts.
type Schema string

const (
	SchemaOld Schema = "old"
	SchemaNew Schema = "new"
)

// ErrNoSchema is returned when neither layout can be recognized.
var ErrNoSchema = errors.New("no schema detected")

// SchemaConfig describes header cleanup and the required columns of each
// layout.
type SchemaConfig struct {
	Version       string              `yaml:"version"`
	StripSuffixes []string            `yaml:"strip_suffixes"`
	Aliases       map[string][]string `yaml:"aliases"`
	OldSchema     []string            `yaml:"old_schema"`
	NewSchema     []string            `yaml:"new_schema"`
}

// DefaultSchemaConfig returns the built-in schema document.
func DefaultSchemaConfig() *SchemaConfig {
	return &SchemaConfig{
		Version:       "1",
		StripSuffixes: []string{" (min)", " (%)", " [min]", " (minutes)"},
		Aliases: map[string][]string{
			ColDataFolderName: {"Data Folder Name", "Data Folder", "DataFolder"},
			ColDateRun:        {"Date Run", "Run Date"},
			ColCartridgeNum:   {"Cartridge Num", "Cartridge #", "Cartridge Number", "Cartridge"},
			ColSpecies:        {"Plant Species", "PlantSpecies"},
			ColRetentionTime:  {"Retention Time", "RT"},
			ColMatch1Quality:  {"Match1 Quality", "Match 1 Quality"},
			ColMatch2Quality:  {"Match2 Quality", "Match 2 Quality"},
			ColMatch3Quality:  {"Match3 Quality", "Match 3 Quality"},
			ColMatch1:         {"Match 1"},
			ColMatch2:         {"Match 2"},
			ColMatch3:         {"Match 3"},
			ColComments:       {LegacyCommentsHeader, "Comment"},
			ColMatchScore:     {"Match Score"},
		},
		OldSchema: []string{
			ColDataFolderName, ColDateRun, ColCartridgeNum, ColRetentionTime,
			ColMatch1, ColMatch1Quality, ColMatch2, ColMatch2Quality, ColMatch3, ColMatch3Quality,
			ColComments,
		},
		NewSchema: append([]string(nil), OutputColumns...),
	}
}

// LoadSchemaConfig reads a schema YAML document.
func LoadSchemaConfig(path string) (*SchemaConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchemaConfig(b)
}

// ParseSchemaConfig decodes and validates a schema document.
func ParseSchemaConfig(b []byte) (*SchemaConfig, error) {
	var c SchemaConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(c.OldSchema) == 0 || len(c.NewSchema) == 0 {
		return nil, errors.New("schema: old_schema and new_schema are required")
	}
	return &c, nil
}

// DetectSchema classifies a header. NEW wins when all four NEW markers are
// present; otherwise OLD needs the legacy Comments text or the minimal OLD
// columns.
func DetectSchema(columns []string) (Schema, error) {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	if hasAll(set, NewMarkers) {
		return SchemaNew, nil
	}
	legacy := strings.ToLower(LegacyCommentsHeader)
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), legacy) {
			return SchemaOld, nil
		}
	}
	if hasAll(set, minimalOld) {
		return SchemaOld, nil
	}
	return "", ErrNoSchema
}

func hasAll(set map[string]bool, names []string) bool {
	for _, n := range names {
		if !set[strings.ToLower(n)] {
			return false
		}
	}
	return true
}
