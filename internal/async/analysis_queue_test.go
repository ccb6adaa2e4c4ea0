package async

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/pipeline"
)

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, doc extract.Document) (*pipeline.Analysis, error) {
	if strings.HasPrefix(doc.Name, "bad") {
		return nil, errors.New("unreadable")
	}
	return &pipeline.Analysis{
		Record:       entity.PrescriptionRecord{PatientName: doc.Name, Medications: []entity.Medication{}},
		RecordSource: pipeline.SourceEntities,
		MedicineInfo: []entity.MedicineInfo{{Name: "ibuprofen"}},
	}, nil
}

type memStore struct {
	mu   sync.Mutex
	recs []entity.PrescriptionRecord
}

func (s *memStore) Append(_ context.Context, rec entity.PrescriptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}
func (s *memStore) ReadAll(context.Context) ([]map[string]string, error) { return nil, nil }
func (s *memStore) Close() error                                        { return nil }

func TestAnalysisQueueProcessesJobs(t *testing.T) {
	store := &memStore{}
	var mu sync.Mutex
	done := map[constants.JobStatus]int{}
	q := NewAnalysisQueue(fakeAnalyzer{}, store, nil,
		WithWorkers(2),
		WithQueueSize(1),
		WithProcessTimeout(time.Second),
		WithOnDone(func(j entity.AnalysisJob) {
			mu.Lock()
			done[j.Status]++
			mu.Unlock()
		}),
	)

	ctx := context.Background()
	var ids []uuid.UUID
	for _, p := range []string{"/in/a.txt", "/in/b.txt", "/in/bad.txt"} {
		id, err := q.Enqueue(ctx, Job{Path: p})
		if err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
		ids = append(ids, id)
	}
	q.Shutdown(ctx)

	if len(store.recs) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(store.recs))
	}
	if done[constants.JobStatusSucceeded] != 2 || done[constants.JobStatusFailed] != 1 {
		t.Fatalf("unexpected outcomes %v", done)
	}
	bad, ok := q.Status(ids[2])
	if !ok || bad.Status != constants.JobStatusFailed || bad.ErrorMessage == "" || bad.FinishedAt == nil {
		t.Fatalf("unexpected failed job %+v", bad)
	}
	good, _ := q.Status(ids[0])
	if good.Status != constants.JobStatusSucceeded || good.Medicines != 1 || good.StartedAt == nil {
		t.Fatalf("unexpected job %+v", good)
	}
	if len(q.Jobs()) != 3 {
		t.Fatalf("expected 3 tracked jobs")
	}
}

func TestAnalysisQueueRejectsAfterShutdown(t *testing.T) {
	q := NewAnalysisQueue(fakeAnalyzer{}, &memStore{}, nil)
	q.Shutdown(context.Background())
	if _, err := q.Enqueue(context.Background(), Job{Path: "/in/a.txt"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
