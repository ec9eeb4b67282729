// Package domain defines the normalized domain types for the agtasks wizard.
// These types represent the core concepts independent of the shapes of the
// service-desk, persistence, and 360 farm-data APIs.
package domain

// Protocol is a reusable service template defined in the external tracker.
// TmProtocolID is the key of the tracker issue that holds the template tasks.
type Protocol struct {
	ID           string // Persistence row ID
	TmProtocolID string // Tracker template issue key
	Name         string // Display name
}

// TaskTemplateEntry is one row of a protocol's task list, fetched from the
// tracker by the protocol's template issue key.
type TaskTemplateEntry struct {
	Key      string // Tracker subtask key, unique per protocol after dedup
	Summary  string // Task summary shown to the user
	TaskType string // Task type discriminator (e.g. "fieldvisit")
}

// Lot is a georeferenced farm subdivision selected through the
// workspace -> season -> farm -> field cascade.
type Lot struct {
	WorkspaceID   string
	WorkspaceName string
	SeasonID      string // Campaign in the original UI wording
	SeasonName    string
	FarmID        string
	FarmName      string
	FieldID       string
	FieldName     string
	Hectares      float64
	Crop          string
	Hybrid        string
	Deleted       bool // Soft-delete flag enforced by the backend
}

// Task is one unit of work derived from a protocol template entry, enriched
// with a user assignment and, for field-visit tasks, a data-collection form.
type Task struct {
	ID           string // Persistence row ID, set after creation
	TaskName     string
	TaskType     string
	UserEmail    string
	FormID       string // Required when TaskType == TaskTypeFieldVisit
	TmpSubtaskID string // Template entry key this task was derived from
	SubtaskID    string // Tracker sub-issue key, set after sub-issue creation
	Enabled      bool   // Disabled tasks are excluded from validation and submission
	Deleted      bool
}

// Service is the aggregate created per wizard run. RequestID is the tracker
// issue key created for it before any of its tasks' sub-issues.
type Service struct {
	ID           string
	ProjectID    string
	Name         string
	TmpRequestID string // Template issue key the service was instantiated from
	RequestID    string // Tracker issue key
	ProtocolID   string
	Deleted      bool
}

// Project scopes a wizard run and carries the identifiers the tracker
// integration needs.
type Project struct {
	ID            string
	DomainID      string
	Name          string
	AreaID        string
	ServiceDeskID string
	RequestTypeID string
	Language      string
}

// Workspace is the top level of the lot cascade, fetched from the 360 API.
type Workspace struct {
	ID      string
	Name    string
	Deleted bool
}

// Season is the campaign level of the lot cascade.
type Season struct {
	ID   string
	Name string
}

// Farm is the establishment level of the lot cascade.
type Farm struct {
	ID   string
	Name string
}

// User is a domain member assignable to tasks.
type User struct {
	Email     string
	FirstName string
	LastName  string
}

// FullName returns "First Last", falling back to the email when both name
// parts are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Form is a data-collection form assignable to field-visit tasks.
type Form struct {
	ID   string
	Name string
}

// TaskType constants for the types the wizard treats specially.
const (
	// TaskTypeFieldVisit marks tasks that require a data-collection form
	// before submission is valid.
	TaskTypeFieldVisit = "fieldvisit"
	TaskTypeTillage    = "tillage"
	TaskTypeAdmin      = "administrative"
)
