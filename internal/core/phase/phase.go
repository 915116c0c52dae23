// Package phase defines scheduling phases of transport-order line items
// and the automation metadata attached to them.
package phase

import "errors"

// Unknown is the sentinel phase reported for items that have not been
// assigned a scheduling phase. Transitions into it are never recorded.
const Unknown = "unknown"

var (
	// ErrNotFound is returned when a phase definition does not exist.
	ErrNotFound = errors.New("phase definition not found")
	// ErrBuiltIn is returned when attempting to mutate or delete a
	// built-in phase definition.
	ErrBuiltIn = errors.New("built-in phase definitions are immutable")
	// ErrExists is returned when creating a definition with an id that is
	// already registered.
	ErrExists = errors.New("phase definition already exists")
)

// WindowUnit is the unit in which a window's relative offsets are expressed.
type WindowUnit string

const (
	UnitHours WindowUnit = "hours"
	UnitDays  WindowUnit = "days"
	UnitWeeks WindowUnit = "weeks"
)

// Bucket is the time granularity used to group items into one shared task.
type Bucket string

const (
	BucketHour Bucket = "hour"
	BucketDay  Bucket = "day"
	BucketWeek Bucket = "week"
	BucketYear Bucket = "year"
)

// TimelineReference names the anchor date used to compute window offsets.
type TimelineReference string

const (
	RefServiceStart TimelineReference = "service_start"
	RefSubmission   TimelineReference = "submission_deadline"
	RefOrderCreated TimelineReference = "order_created"
)

// WindowConfig is a relative time range around a reference date during
// which automation may fire. Start and End are offsets in Unit; negative
// offsets lie before the anchor. Start ≤ End is expected but windows
// authored with Start > End are tolerated by normalization at match time.
type WindowConfig struct {
	Unit   WindowUnit `yaml:"unit" json:"unit"`
	Start  int        `yaml:"start" json:"start"`
	End    int        `yaml:"end" json:"end"`
	Bucket Bucket     `yaml:"bucket" json:"bucket"`
	Label  string     `yaml:"label" json:"label"`
}

// Minutes returns the window bounds converted to minutes, normalized so
// that the first value is never greater than the second.
func (w WindowConfig) Minutes() (int, int) {
	factor := 60
	switch w.Unit {
	case UnitDays:
		factor = 1440
	case UnitWeeks:
		factor = 10080
	}

	start := w.Start * factor
	end := w.End * factor
	if start > end {
		start, end = end, start
	}
	return start, end
}

// ConditionField selects the item attribute a condition inspects.
type ConditionField string

const (
	FieldItemTag        ConditionField = "item_tag"
	FieldItemType       ConditionField = "item_type"
	FieldTTRPhase       ConditionField = "ttr_phase"
	FieldTimetablePhase ConditionField = "timetable_phase"
)

// ConditionOperator compares the selected attribute to the condition value.
type ConditionOperator string

const (
	OpIncludes  ConditionOperator = "includes"
	OpExcludes  ConditionOperator = "excludes"
	OpEquals    ConditionOperator = "equals"
	OpNotEquals ConditionOperator = "not_equals"
)

// Condition is a single typed predicate. A definition's conditions are
// evaluated as a logical AND.
type Condition struct {
	ID       string            `yaml:"id" json:"id"`
	Field    ConditionField    `yaml:"field" json:"field"`
	Operator ConditionOperator `yaml:"operator" json:"operator"`
	Value    string            `yaml:"value" json:"value"`
}

// Definition describes one scheduling phase and the automation attached
// to it. Built-in definitions are immutable; custom ones are created,
// edited, and deleted at runtime. Identity is the unique ID.
type Definition struct {
	ID                string            `yaml:"id" json:"id"`
	Label             string            `yaml:"label" json:"label"`
	Summary           string            `yaml:"summary" json:"summary"`
	TimelineReference TimelineReference `yaml:"timeline_reference" json:"timeline_reference"`
	AutoCreate        bool              `yaml:"auto_create" json:"auto_create"`
	Window            WindowConfig      `yaml:"window" json:"window"`
	BlueprintID       string            `yaml:"blueprint" json:"blueprint"`
	SourcePhase       string            `yaml:"source_phase,omitempty" json:"source_phase,omitempty"`
	Conditions        []Condition       `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	BuiltIn           bool              `yaml:"-" json:"built_in"`
}

// Clone returns a deep copy so registry snapshots stay immutable.
func (d Definition) Clone() Definition {
	out := d
	if d.Conditions != nil {
		out.Conditions = make([]Condition, len(d.Conditions))
		copy(out.Conditions, d.Conditions)
	}
	return out
}
