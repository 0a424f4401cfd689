package domain

type ScheduleMode string

const (
	ScheduleManual    ScheduleMode = "manual"
	ScheduleAutomatic ScheduleMode = "automatic"
)

// Valid reports whether m is one of the known scheduling modes.
func (m ScheduleMode) Valid() bool {
	return m == ScheduleManual || m == ScheduleAutomatic
}

type RelationType string

const (
	RelationFollows     RelationType = "follows"
	RelationPrecedes    RelationType = "precedes"
	RelationParentChild RelationType = "parent_child"
)

// ValidRelationTypes is the canonical set of accepted relation type strings.
var ValidRelationTypes = map[string]bool{
	"follows": true, "precedes": true, "parent_child": true,
}

type CauseType string

const (
	CauseWorkItemChanged    CauseType = "work_item_changed"
	CauseRelationChanged    CauseType = "relation_changed"
	CauseWorkingDaysChanged CauseType = "working_days_changed"
	CauseImport             CauseType = "import"
)
