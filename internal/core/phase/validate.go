package phase

import (
	"fmt"

	"github.com/hay-kot/criterio"
)

var validUnits = map[WindowUnit]bool{
	UnitHours: true,
	UnitDays:  true,
	UnitWeeks: true,
}

var validBuckets = map[Bucket]bool{
	BucketHour: true,
	BucketDay:  true,
	BucketWeek: true,
	BucketYear: true,
}

var validReferences = map[TimelineReference]bool{
	RefServiceStart: true,
	RefSubmission:   true,
	RefOrderCreated: true,
}

var validFields = map[ConditionField]bool{
	FieldItemTag:        true,
	FieldItemType:       true,
	FieldTTRPhase:       true,
	FieldTimetablePhase: true,
}

var operatorsByField = map[ConditionField]map[ConditionOperator]bool{
	FieldItemTag:        {OpIncludes: true, OpExcludes: true},
	FieldItemType:       {OpEquals: true, OpNotEquals: true},
	FieldTTRPhase:       {OpEquals: true, OpNotEquals: true},
	FieldTimetablePhase: {OpEquals: true, OpNotEquals: true},
}

// Validate checks a window config before it is stored. Malformed
// windows are rejected here so the matcher never sees them.
func (w WindowConfig) Validate(field string) error {
	var errs criterio.FieldErrorsBuilder

	if !validUnits[w.Unit] {
		errs = errs.Append(field+".unit", fmt.Errorf("unknown unit %q (want hours, days, or weeks)", w.Unit))
	}
	if !validBuckets[w.Bucket] {
		errs = errs.Append(field+".bucket", fmt.Errorf("unknown bucket %q (want hour, day, week, or year)", w.Bucket))
	}
	if w.Start > w.End {
		// Tolerated by the matcher, but authoring start > end is almost
		// always a sign of a flipped window.
		errs = errs.Append(field, fmt.Errorf("start %d is after end %d", w.Start, w.End))
	}

	return errs.ToError()
}

// ValidateConditions checks that every condition uses a known field and
// an operator valid for that field.
func ValidateConditions(field string, conditions []Condition) error {
	var errs criterio.FieldErrorsBuilder

	for i, c := range conditions {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if !validFields[c.Field] {
			errs = errs.Append(prefix+".field", fmt.Errorf("unknown field %q", c.Field))
			continue
		}
		if !operatorsByField[c.Field][c.Operator] {
			errs = errs.Append(prefix+".operator", fmt.Errorf("operator %q is not valid for field %q", c.Operator, c.Field))
		}
	}

	return errs.ToError()
}

// Validate checks a full definition before it enters the registry.
func (d Definition) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("id", d.ID, required),
		criterio.Run("label", d.Label, required),
		criterio.Run("blueprint", d.BlueprintID, required),
		validateReference(d.TimelineReference),
		d.Window.Validate("window"),
		ValidateConditions("conditions", d.Conditions),
	)
}

func required(s string) error {
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func validateReference(ref TimelineReference) error {
	if !validReferences[ref] {
		return criterio.NewFieldErrors("timeline_reference", fmt.Errorf("unknown reference %q", ref))
	}
	return nil
}
