package agenda

// Package-level constants for agenda management.

const (
	// MaxWriteRetries bounds the compare-and-swap retries of read-modify-write operations.
	MaxWriteRetries = 3

	// MaxAlternatives is the number of conflict-free alternatives suggested for a conflicting session.
	MaxAlternatives = 3

	// HighSeverityMinutes and MediumSeverityMinutes are the overlap thresholds of conflict severity.
	HighSeverityMinutes   = 60
	MediumSeverityMinutes = 30

	// ChangeDescriptionInitial is recorded on the first version of every agenda.
	ChangeDescriptionInitial = "Initial agenda creation"
	// ChangeDescriptionRollback is formatted with the restored version number.
	ChangeDescriptionRollback = "Rolled back to version %d"

	// ChangedBySystem attributes changes without a caller-supplied author.
	ChangedBySystem = "system"
)

// Synchronizer result messages.
const (
	MessageNoActiveAgenda     = "No active Smart Agenda"
	MessageAddedToAgenda      = "Added to Smart Agenda"
	MessageMarkedFavorite     = "Marked as favorite in Smart Agenda"
	MessageAlreadyFavorite    = "Already a favorite in Smart Agenda"
	MessageRemovedFromAgenda  = "Removed from Smart Agenda"
	MessageNotInAgenda        = "Session not in Smart Agenda"
	MessageSessionNotFound    = "Session not found"
	MessageSessionNotSchedule = "Session has no scheduled time"
)

// Conflict severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Suggested actions per severity.
const (
	ActionHigh   = "complete overlap, choose one"
	ActionMedium = "may need to leave early"
	ActionLow    = "minor edge overlap"
)
