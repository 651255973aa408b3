package timesheet

type EventKind string

const (
	EventNone     EventKind = ""
	EventRefresh  EventKind = "refresh"
	EventReplaced EventKind = "replaced"

	EventTimerStarted  EventKind = "timer_started"
	EventTimerStopped  EventKind = "timer_stopped"
	EventTimerExtended EventKind = "timer_extended"

	EventRecordAdded   EventKind = "record_added"
	EventRecordUpdated EventKind = "record_updated"
	EventRecordDeleted EventKind = "record_deleted"

	EventProjectAdded      EventKind = "project_added"
	EventProjectUpdated    EventKind = "project_updated"
	EventProjectDeleted    EventKind = "project_deleted"
	EventProjectsReordered EventKind = "projects_reordered"

	EventCategoryAdded   EventKind = "category_added"
	EventCategoryUpdated EventKind = "category_updated"
	EventCategoryDeleted EventKind = "category_deleted"

	EventMerged EventKind = "merged"
)

// Event describes what a command changed. IDs are the ids of the touched
// rows of the collection named by Kind.
type Event struct {
	Kind EventKind
	IDs  []int
}

// Empty reports a command that changed nothing.
func (e Event) Empty() bool { return e.Kind == EventNone }
