package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/hasty/pkg/queue"
)

type fakeQueue struct {
	mu         sync.Mutex
	tasks      []*queue.Task
	statuses   map[string]queue.TaskStatus
	history    map[string][]queue.TaskStatus
	cancelled  []string
	enqueueErr error
	pingErr    error
	closed     bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		statuses: make(map[string]queue.TaskStatus),
		history:  make(map[string][]queue.TaskStatus),
	}
}

func (q *fakeQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *fakeQueue) GetTaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", queue.ErrTaskNotFound, taskID)
	}
	return &s, nil
}

func (q *fakeQueue) Ping(ctx context.Context) error { return q.pingErr }

func (q *fakeQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

func (q *fakeQueue) CancelTask(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled = append(q.cancelled, taskID)
	return nil
}

func (q *fakeQueue) SaveStatus(ctx context.Context, status *queue.TaskStatus) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[status.TaskID] = *status
	q.history[status.TaskID] = append(q.history[status.TaskID], *status)
	return nil
}

func (q *fakeQueue) SaveFinalStatus(ctx context.Context, status *queue.TaskStatus) error {
	if status.FinishedAt.IsZero() {
		status.FinishedAt = time.Now()
	}
	return q.SaveStatus(ctx, status)
}

func (q *fakeQueue) status(taskID string) queue.TaskStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statuses[taskID]
}

type object struct {
	data     []byte
	modified time.Time
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]object
	now     func() time.Time
	failKey string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]object), now: time.Now}
}

func (s *fakeStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failKey {
		return "", fmt.Errorf("store %s: bucket unavailable", key)
	}
	s.objects[key] = object{data: data, modified: s.now()}
	return key, nil
}

func (s *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, obj := range s.objects {
		if obj.modified.Before(threshold) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *fakeStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

var participantsHeader = []interface{}{
	"commodity_name", "commodity_type", "male", "female", "totalmf", "Age_15-29_ratio",
	"production_area", "parea_unit", "total_production", "tp_unit",
	"quantity_sales", "qsales_unit", "value_sales", "per_dollar_rate",
}

func referenceRows() [][]interface{} {
	return [][]interface{}{
		{"", "Ag_unique_M_Total", 100},
		{"", "Ag_unique_F_Total", 80},
		{"", "Liv_unique_M_Total", 50},
		{"", "Liv_unique_F_Total", 40},
		{"", "overall_ag_Tech_Pecent", 50},
		{"", "overall_liv_Tech_Pecent", 20},
		{"", "Overall_Age_15-29_ratio", 30},
		{"", "Ag_unique_MF_Total", 200},
		{"", "Livestock_unique_MF_Total", 90},
		{"Agriculture", "Improved seed", 25},
	}
}

func surveyWorkbook(t *testing.T, participants, technology [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	write := func(sheet string, rows [][]interface{}) {
		if rows == nil {
			return
		}
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for i := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	write("participants", participants)
	write("technology", technology)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func validWorkbook(t *testing.T) []byte {
	return surveyWorkbook(t,
		[][]interface{}{
			participantsHeader,
			{"Maize", "agriculture", 10, 5, 15, 40, 2, "ha", 4, "other", 1, "other", 100, 1},
			{"Goat", "livestock", 3, 3, 6, 50, 0, "ha", 6, "other", 2, "other", 60, 2},
		},
		append([][]interface{}{{"category", "items", "value"}}, referenceRows()...),
	)
}

// upload wraps data in a multipart file header as gin would hand it over.
func upload(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	return uploads(t, map[string][]byte{name: data}, name)[0]
}

func uploads(t *testing.T, files map[string][]byte, order ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(files[name]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	return form.File["files"]
}
