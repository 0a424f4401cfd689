package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Full(t *testing.T) {
	schema := validFullSchema()
	require.Empty(t, ValidateImportSchema(schema))

	out, err := Convert(schema)
	require.NoError(t, err)

	require.Len(t, out.WorkItems, 4)
	require.Len(t, out.RefToID, 4)
	byID := make(map[string]*domain.WorkItem)
	for _, w := range out.WorkItems {
		byID[w.ID] = w
	}

	p := byID[out.RefToID["p"]]
	a := byID[out.RefToID["a"]]
	b := byID[out.RefToID["b"]]
	require.NotNil(t, p)
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, domain.ScheduleAutomatic, p.ScheduleMode)
	assert.Equal(t, domain.ScheduleManual, a.ScheduleMode, "mode defaults to manual")
	require.NotNil(t, a.ParentID)
	assert.Equal(t, p.ID, *a.ParentID)
	assert.Equal(t, domain.Date(2025, time.June, 2), *a.StartDate)
	assert.Equal(t, domain.Date(2025, time.June, 4), *a.DueDate)
	assert.Equal(t, 2, *b.Duration)

	require.Len(t, out.Relations, 2)
	assert.Equal(t, domain.RelationFollows, out.Relations[0].Type)
	assert.Equal(t, b.ID, out.Relations[0].FromID)
	assert.Equal(t, a.ID, out.Relations[0].ToID)

	// precedes is normalised: c follows p with lag 1
	assert.Equal(t, domain.RelationFollows, out.Relations[1].Type)
	assert.Equal(t, out.RefToID["c"], out.Relations[1].FromID)
	assert.Equal(t, p.ID, out.Relations[1].ToID)
	assert.Equal(t, 1, out.Relations[1].Lag)

	require.NotNil(t, out.Weekdays)
	assert.Equal(t, domain.DefaultWeekdays(), *out.Weekdays)
	require.Len(t, out.NonWorkingDates, 1)
	assert.Equal(t, "Whit Monday", out.NonWorkingDates[0].Reason)
}

func TestConvert_AppliesDefaults(t *testing.T) {
	ignore, follow := true, false
	schema := &ImportSchema{
		Defaults: &DefaultsImport{ScheduleMode: "automatic", Duration: ptrInt(3), IgnoreNonWorkingDays: &ignore},
		WorkItems: []WorkItemImport{
			{Ref: "plain", Subject: "Plain"},
			{Ref: "custom", Subject: "Custom", ScheduleMode: "manual", Duration: ptrInt(1), IgnoreNonWorkingDays: &follow},
		},
	}
	require.Empty(t, ValidateImportSchema(schema))

	out, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, out.WorkItems, 2)

	plain, custom := out.WorkItems[0], out.WorkItems[1]
	assert.Equal(t, domain.ScheduleAutomatic, plain.ScheduleMode)
	assert.Equal(t, 3, *plain.Duration)
	assert.True(t, plain.IgnoreNonWorkingDays)

	assert.Equal(t, domain.ScheduleManual, custom.ScheduleMode)
	assert.Equal(t, 1, *custom.Duration)
	assert.False(t, custom.IgnoreNonWorkingDays)

	*plain.Duration = 9
	assert.Equal(t, 3, *schema.Defaults.Duration, "items do not share the default pointer")
}

func TestConvert_NoDefaults(t *testing.T) {
	out, err := Convert(&ImportSchema{WorkItems: []WorkItemImport{{Ref: "a", Subject: "A"}}})
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleManual, out.WorkItems[0].ScheduleMode)
	assert.Nil(t, out.WorkItems[0].Duration)
	assert.False(t, out.WorkItems[0].IgnoreNonWorkingDays)
}

func TestConvert_ParentsBeforeChildren(t *testing.T) {
	schema := &ImportSchema{WorkItems: []WorkItemImport{
		{Ref: "leaf", Subject: "Leaf", ParentRef: ptrStr("mid")},
		{Ref: "mid", Subject: "Mid", ParentRef: ptrStr("root")},
		{Ref: "root", Subject: "Root"},
	}}
	require.Empty(t, ValidateImportSchema(schema))

	out, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, out.WorkItems, 3)
	assert.Equal(t, "Root", out.WorkItems[0].Subject)
	assert.Equal(t, "Mid", out.WorkItems[1].Subject)
	assert.Equal(t, "Leaf", out.WorkItems[2].Subject)
}

func TestLoadImportSchema_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
calendar:
  working_days: [mon, tue, wed, thu]
work_items:
  - ref: a
    subject: Design
    start_date: "2025-06-02"
    duration: 3
  - ref: b
    subject: Build
    schedule_mode: automatic
    duration: 2
relations:
  - type: follows
    from: b
    to: a
`), 0o600))

	jsonPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "calendar": {"working_days": ["mon", "tue", "wed", "thu"]},
  "work_items": [
    {"ref": "a", "subject": "Design", "start_date": "2025-06-02", "duration": 3},
    {"ref": "b", "subject": "Build", "schedule_mode": "automatic", "duration": 2}
  ],
  "relations": [{"type": "follows", "from": "b", "to": "a"}]
}`), 0o600))

	fromYAML, err := LoadImportSchema(yamlPath)
	require.NoError(t, err)
	fromJSON, err := LoadImportSchema(jsonPath)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Empty(t, ValidateImportSchema(fromYAML))
	assert.Equal(t, 3, *fromYAML.WorkItems[0].Duration)
}

func TestLoadImportSchema_Errors(t *testing.T) {
	_, err := LoadImportSchema(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ParseImportSchema([]byte("work_items: [unclosed"), ".yml")
	assert.Error(t, err)

	_, err = ParseImportSchema([]byte("{"), ".json")
	assert.Error(t, err)
}
