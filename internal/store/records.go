package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teemow/meetingsync/internal/meeting"
)

// Get returns the record for an event. The boolean is false when no record
// exists.
func (r *Repository) Get(ctx context.Context, eventID string) (meeting.TrackingRecord, bool, error) {
	var row recordModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return meeting.TrackingRecord{}, false, nil
		}
		return meeting.TrackingRecord{}, false, r.logError("store_get_record_failed", err, "event_id", eventID)
	}
	return row.toRecord(), true, nil
}

// Insert stores a new record. It returns meeting.ErrRecordExists when the
// event is already tracked; the stored row is left unchanged.
func (r *Repository) Insert(ctx context.Context, rec meeting.TrackingRecord) error {
	row := recordModelFrom(rec)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return meeting.ErrRecordExists
		}
		return r.logError("store_insert_record_failed", res.Error, "event_id", rec.EventID)
	}
	if res.RowsAffected == 0 {
		return meeting.ErrRecordExists
	}
	return nil
}

// Update writes the record's snapshot and progress. Records whose transcript
// step is already terminal are never modified; such updates return
// meeting.ErrRecordFinalized. Unknown events return meeting.ErrNotFound.
func (r *Repository) Update(ctx context.Context, rec meeting.TrackingRecord) error {
	row := recordModelFrom(rec)
	res := r.db.WithContext(ctx).
		Model(&recordModel{}).
		Where("event_id = ? AND transcript_retrieved = ?", row.EventID, false).
		Updates(map[string]any{
			"task_id":                   row.TaskID,
			"calendar_owner":            row.CalendarOwner,
			"subject":                   row.Subject,
			"join_url":                  row.JoinURL,
			"start_time":                row.StartTime,
			"end_time":                  row.EndTime,
			"duration":                  row.Duration,
			"categories":                row.Categories,
			"organizer_name":            row.OrganizerName,
			"organizer_email":           row.OrganizerEmail,
			"attendees":                 row.Attendees,
			"is_cancelled":              row.IsCancelled,
			"is_organizer":              row.IsOrganizer,
			"event_type":                row.EventType,
			"is_online_meeting":         row.IsOnlineMeeting,
			"online_meeting_provider":   row.OnlineMeetingProvider,
			"response_status":           row.ResponseStatus,
			"location":                  row.Location,
			"transcript_window_elapsed": row.TranscriptWindowElapsed,
			"transcript_retrieved":      row.TranscriptRetrieved,
			"summary_delivered":         row.SummaryDelivered,
			"summary":                   row.Summary,
			"transcript_attempts":       row.TranscriptAttempts,
			"updated_at":                time.Now().UTC(),
		})
	if res.Error != nil {
		return r.logError("store_update_record_failed", res.Error, "event_id", rec.EventID)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	_, found, err := r.Get(ctx, rec.EventID)
	if err != nil {
		return err
	}
	if !found {
		return meeting.ErrNotFound
	}
	return meeting.ErrRecordFinalized
}

// ListFilter narrows List.
type ListFilter struct {
	// States restricts the result to records in any of these states.
	States []meeting.State
	// Since restricts the result to meetings starting at or after this time.
	Since time.Time
	Limit int
}

// List returns records ordered by meeting start, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]meeting.TrackingRecord, error) {
	tx := r.db.WithContext(ctx).Model(&recordModel{})
	if !f.Since.IsZero() {
		tx = tx.Where("start_time >= ?", f.Since.UTC())
	}
	if len(f.States) > 0 {
		var clauses []string
		var args []any
		for _, s := range f.States {
			switch s {
			case meeting.StateAwaitingWindow:
				clauses = append(clauses, "(transcript_retrieved = ? AND transcript_window_elapsed = ?)")
				args = append(args, false, false)
			case meeting.StateAwaitingTranscript:
				clauses = append(clauses, "(transcript_retrieved = ? AND transcript_window_elapsed = ?)")
				args = append(args, false, true)
			case meeting.StateFinalized:
				clauses = append(clauses, "(transcript_retrieved = ?)")
				args = append(args, true)
			}
		}
		if len(clauses) == 0 {
			return nil, nil
		}
		tx = tx.Where(strings.Join(clauses, " OR "), args...)
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}

	var rows []recordModel
	if err := tx.Order("start_time DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("store_list_records_failed", err)
	}

	out := make([]meeting.TrackingRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

type recordModel struct {
	EventID                 string    `gorm:"column:event_id;primaryKey;size:512"`
	TaskID                  string    `gorm:"column:task_id;size:64"`
	CalendarOwner           string    `gorm:"column:calendar_owner;size:320;index"`
	Subject                 string    `gorm:"column:subject"`
	JoinURL                 string    `gorm:"column:join_url"`
	StartTime               time.Time `gorm:"column:start_time;index"`
	EndTime                 time.Time `gorm:"column:end_time"`
	Duration                string    `gorm:"column:duration;size:16"`
	Categories              string    `gorm:"column:categories"`
	OrganizerName           string    `gorm:"column:organizer_name"`
	OrganizerEmail          string    `gorm:"column:organizer_email;size:320"`
	Attendees               string    `gorm:"column:attendees"`
	IsCancelled             bool      `gorm:"column:is_cancelled"`
	IsOrganizer             bool      `gorm:"column:is_organizer"`
	EventType               string    `gorm:"column:event_type;size:64"`
	IsOnlineMeeting         bool      `gorm:"column:is_online_meeting"`
	OnlineMeetingProvider   string    `gorm:"column:online_meeting_provider;size:64"`
	ResponseStatus          string    `gorm:"column:response_status;size:64"`
	Location                string    `gorm:"column:location"`
	TranscriptWindowElapsed bool      `gorm:"column:transcript_window_elapsed"`
	TranscriptRetrieved     bool      `gorm:"column:transcript_retrieved;index"`
	SummaryDelivered        bool      `gorm:"column:summary_delivered"`
	Summary                 string    `gorm:"column:summary"`
	TranscriptAttempts      int       `gorm:"column:transcript_attempts"`
	CreatedAt               time.Time `gorm:"column:created_at"`
	UpdatedAt               time.Time `gorm:"column:updated_at"`
}

func (recordModel) TableName() string {
	return "meeting_events"
}

func recordModelFrom(rec meeting.TrackingRecord) recordModel {
	return recordModel{
		EventID:                 strings.TrimSpace(rec.EventID),
		TaskID:                  strings.TrimSpace(rec.TaskID),
		CalendarOwner:           strings.TrimSpace(rec.CalendarOwner),
		Subject:                 rec.Subject,
		JoinURL:                 rec.JoinURL,
		StartTime:               rec.Start.UTC(),
		EndTime:                 rec.End.UTC(),
		Duration:                rec.Duration,
		Categories:              rec.Categories,
		OrganizerName:           rec.OrganizerName,
		OrganizerEmail:          rec.OrganizerEmail,
		Attendees:               rec.Attendees,
		IsCancelled:             rec.IsCancelled,
		IsOrganizer:             rec.IsOrganizer,
		EventType:               rec.EventType,
		IsOnlineMeeting:         rec.IsOnlineMeeting,
		OnlineMeetingProvider:   rec.OnlineMeetingProvider,
		ResponseStatus:          rec.ResponseStatus,
		Location:                rec.Location,
		TranscriptWindowElapsed: rec.TranscriptWindowElapsed,
		TranscriptRetrieved:     rec.TranscriptRetrieved,
		SummaryDelivered:        rec.SummaryDelivered,
		Summary:                 rec.Summary,
		TranscriptAttempts:      rec.TranscriptAttempts,
		CreatedAt:               rec.CreatedAt.UTC(),
		UpdatedAt:               rec.UpdatedAt.UTC(),
	}
}

func (m recordModel) toRecord() meeting.TrackingRecord {
	return meeting.TrackingRecord{
		EventID:                 m.EventID,
		TaskID:                  m.TaskID,
		CalendarOwner:           m.CalendarOwner,
		Subject:                 m.Subject,
		JoinURL:                 m.JoinURL,
		Start:                   m.StartTime.UTC(),
		End:                     m.EndTime.UTC(),
		Duration:                m.Duration,
		Categories:              m.Categories,
		OrganizerName:           m.OrganizerName,
		OrganizerEmail:          m.OrganizerEmail,
		Attendees:               m.Attendees,
		IsCancelled:             m.IsCancelled,
		IsOrganizer:             m.IsOrganizer,
		EventType:               m.EventType,
		IsOnlineMeeting:         m.IsOnlineMeeting,
		OnlineMeetingProvider:   m.OnlineMeetingProvider,
		ResponseStatus:          m.ResponseStatus,
		Location:                m.Location,
		TranscriptWindowElapsed: m.TranscriptWindowElapsed,
		TranscriptRetrieved:     m.TranscriptRetrieved,
		SummaryDelivered:        m.SummaryDelivered,
		Summary:                 m.Summary,
		TranscriptAttempts:      m.TranscriptAttempts,
		CreatedAt:               m.CreatedAt.UTC(),
		UpdatedAt:               m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
