package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/meetingsync/internal/meeting"
)

type fakeCalendar struct {
	events    map[string][]meeting.Event
	listErr   map[string]error
	ids       map[string]string
	names     map[string]string
	nameErr   error
	idErr     error
	listCalls []string
}

func (f *fakeCalendar) ListEvents(_ context.Context, user string, _, _ time.Time) ([]meeting.Event, error) {
	f.listCalls = append(f.listCalls, user)
	if err := f.listErr[user]; err != nil {
		return nil, err
	}
	return f.events[user], nil
}

func (f *fakeCalendar) ResolveDirectoryID(_ context.Context, email string, field meeting.DirectoryField) (string, error) {
	if field == meeting.FieldDisplayName {
		if f.nameErr != nil {
			return "", f.nameErr
		}
		if name, ok := f.names[email]; ok {
			return name, nil
		}
		return "", meeting.ErrNotFound
	}
	if f.idErr != nil {
		return "", f.idErr
	}
	if id, ok := f.ids[email]; ok {
		return id, nil
	}
	return "", meeting.ErrNotFound
}

type fakeTranscripts struct {
	refs     []meeting.TranscriptRef
	listErr  error
	bodies   map[string]string
	fetchErr error

	listCalls   int
	directoryID string
	start, end  time.Time
	fetched     []string
}

func (f *fakeTranscripts) ListTranscripts(_ context.Context, directoryID string, start, end time.Time) ([]meeting.TranscriptRef, error) {
	f.listCalls++
	f.directoryID, f.start, f.end = directoryID, start, end
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.refs, nil
}

func (f *fakeTranscripts) FetchTranscriptText(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.bodies[url], nil
}

type fakeSummarizer struct {
	summary string
	err     error
	inputs  []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.inputs = append(f.inputs, text)
	return f.summary, f.err
}

type statusCall struct {
	status      meeting.TaskStatus
	description string
}

type note struct {
	container, name, body string
}

type fakeTracker struct {
	createErr error
	fieldsErr error
	lookupErr error
	noteErr   error
	users     []string
	usersErr  error

	// clients maps "email|CATEGORY" to a client task name.
	clients map[string]string
	// containers maps "name|CATEGORY" to a container ID.
	containers map[string]string

	created  []meeting.TaskDetails
	fields   map[string][]meeting.Progress
	statuses map[string][]statusCall
	lookups  []string
	notes    []note
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		clients:    map[string]string{},
		containers: map[string]string{},
		fields:     map[string][]meeting.Progress{},
		statuses:   map[string][]statusCall{},
	}
}

func (f *fakeTracker) CreateTask(_ context.Context, d meeting.TaskDetails) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, d)
	return fmt.Sprintf("task-%d", len(f.created)), nil
}

func (f *fakeTracker) UpdateTaskFields(_ context.Context, taskID string, p meeting.Progress) error {
	if f.fieldsErr != nil {
		return f.fieldsErr
	}
	f.fields[taskID] = append(f.fields[taskID], p)
	return nil
}

func (f *fakeTracker) SetTaskStatus(_ context.Context, taskID string, status meeting.TaskStatus, description string) error {
	f.statuses[taskID] = append(f.statuses[taskID], statusCall{status: status, description: description})
	return nil
}

func (f *fakeTracker) FindTaskByAttendeeEmail(_ context.Context, email string, c meeting.ClientCategory) (string, error) {
	f.lookups = append(f.lookups, email+"|"+string(c))
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	if name, ok := f.clients[email+"|"+string(c)]; ok {
		return name, nil
	}
	return "", meeting.ErrNotFound
}

func (f *fakeTracker) FindContainerByTaskName(_ context.Context, name string, c meeting.ClientCategory) (string, error) {
	if id, ok := f.containers[name+"|"+string(c)]; ok {
		return id, nil
	}
	return "", meeting.ErrNotFound
}

func (f *fakeTracker) CreateTaskInContainer(_ context.Context, containerID, name, body string) (string, error) {
	if f.noteErr != nil {
		return "", f.noteErr
	}
	f.notes = append(f.notes, note{container: containerID, name: name, body: body})
	return fmt.Sprintf("note-%d", len(f.notes)), nil
}

func (f *fakeTracker) ListUsers(context.Context) ([]string, error) {
	return f.users, f.usersErr
}

func (f *fakeTracker) writes() int {
	n := len(f.created) + len(f.notes)
	for _, p := range f.fields {
		n += len(p)
	}
	for _, s := range f.statuses {
		n += len(s)
	}
	return n
}

// memStore mirrors the guarantees of the SQL repository.
type memStore struct {
	mu      sync.Mutex
	records map[string]meeting.TrackingRecord
	getErr  error
	updates int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]meeting.TrackingRecord{}}
}

func (s *memStore) Get(_ context.Context, id string) (meeting.TrackingRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return meeting.TrackingRecord{}, false, s.getErr
	}
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *memStore) Insert(_ context.Context, rec meeting.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.EventID]; ok {
		return meeting.ErrRecordExists
	}
	s.records[rec.EventID] = rec
	return nil
}

func (s *memStore) Update(_ context.Context, rec meeting.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[rec.EventID]
	if !ok {
		return meeting.ErrNotFound
	}
	if cur.TranscriptRetrieved {
		return meeting.ErrRecordFinalized
	}
	s.updates++
	s.records[rec.EventID] = rec
	return nil
}

func (s *memStore) record(id string) meeting.TrackingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}
