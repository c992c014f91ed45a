package feed

// Logical field names the feed must expose, matched against the header row
// by exact name.
const (
	ColumnExternalKey     = "Issue key"
	ColumnCreated         = "Created"
	ColumnUpdated         = "Updated"
	ColumnManagerName     = "Reporter"
	ColumnRequesterName   = "Assignee"
	ColumnRequesterEmail  = "Assignee_mail_id"
	ColumnRequesterRegion = "Assignee_region"
	ColumnStatus          = "Status"
)

// RequiredColumns lists every header the synchronization pipeline needs. A
// missing column aborts the run before any mutation.
var RequiredColumns = []string{
	ColumnExternalKey,
	ColumnCreated,
	ColumnUpdated,
	ColumnManagerName,
	ColumnRequesterName,
	ColumnRequesterEmail,
	ColumnRequesterRegion,
	ColumnStatus,
}

// ColumnMap resolves required logical fields to column positions.
func (t *Table) ColumnMap() (map[string]int, error) {
	positions := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	mapping := make(map[string]int, len(RequiredColumns))
	for _, required := range RequiredColumns {
		idx, ok := positions[required]
		if !ok {
			return nil, &MissingColumnError{Column: required}
		}
		mapping[required] = idx
	}
	return mapping, nil
}

// MissingColumnError reports a required header absent from the feed.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return "feed: required column not found: " + e.Column
}
