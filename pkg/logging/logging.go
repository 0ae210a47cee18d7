package logging

// Shared structured-logging field names, so components tag their loggers
// consistently.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldType      = "type"
	FieldPort      = "port"
	FieldSignal    = "signal"
)
