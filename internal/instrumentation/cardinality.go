package instrumentation

import "strings"

// ExtractUserDomain reduces an email address to its domain for labels.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Operation names used for collaborator metrics and spans.
const (
	OperationListEvents       = "list_events"
	OperationResolveDirectory = "resolve_directory_id"
	OperationListTranscripts  = "list_transcripts"
	OperationFetchTranscript  = "fetch_transcript"
	OperationSummarize        = "summarize"
	OperationCreateTask       = "create_task"
	OperationUpdateFields     = "update_task_fields"
	OperationSetStatus        = "set_task_status"
	OperationFindClientTask   = "find_client_task"
	OperationFindContainer    = "find_container"
	OperationCreateNote       = "create_note_task"
	OperationListUsers        = "list_users"
	OperationGetRecord        = "get_record"
	OperationInsertRecord     = "insert_record"
	OperationUpdateRecord     = "update_record"
)
