package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an import file.
type ImportSchema struct {
	Calendar  *CalendarImport  `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Defaults  *DefaultsImport  `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	WorkItems []WorkItemImport `json:"work_items" yaml:"work_items"`
	Relations []RelationImport `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// CalendarImport replaces the working weekdays and adds non-working dates.
type CalendarImport struct {
	WorkingDays     []string               `json:"working_days,omitempty" yaml:"working_days,omitempty"`
	NonWorkingDates []NonWorkingDateImport `json:"non_working_dates,omitempty" yaml:"non_working_dates,omitempty"`
}

type NonWorkingDateImport struct {
	Date   string `json:"date" yaml:"date"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// DefaultsImport supplies values for work items that leave them unset.
type DefaultsImport struct {
	ScheduleMode         string `json:"schedule_mode,omitempty" yaml:"schedule_mode,omitempty"`
	Duration             *int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	IgnoreNonWorkingDays *bool  `json:"ignore_non_working_days,omitempty" yaml:"ignore_non_working_days,omitempty"`
}

// WorkItemImport defines a work item in the import file. Ref is local to
// the file; relations and parents refer to items by ref.
type WorkItemImport struct {
	Ref                  string  `json:"ref" yaml:"ref"`
	Subject              string  `json:"subject" yaml:"subject"`
	ParentRef            *string `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	ScheduleMode         string  `json:"schedule_mode,omitempty" yaml:"schedule_mode,omitempty"`
	StartDate            *string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	DueDate              *string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Duration             *int    `json:"duration,omitempty" yaml:"duration,omitempty"`
	IgnoreNonWorkingDays *bool   `json:"ignore_non_working_days,omitempty" yaml:"ignore_non_working_days,omitempty"`
}

// RelationImport defines a follows or precedes relation between two refs.
type RelationImport struct {
	Type string `json:"type" yaml:"type"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Lag  int    `json:"lag,omitempty" yaml:"lag,omitempty"`
}

// LoadImportSchema reads an import file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data, filepath.Ext(path))
}

// ParseImportSchema decodes data in the format named by ext.
func ParseImportSchema(data []byte, ext string) (*ImportSchema, error) {
	var schema ImportSchema
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	}
	return &schema, nil
}
