package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
	locksvc "github.com/trezcool/masomo-lessons/services/lock"
	logsvc "github.com/trezcool/masomo-lessons/services/logger"
	dummydb "github.com/trezcool/masomo-lessons/storage/database/dummy"
)

var ErrInjected = errors.New("injected failure")

// Env bundles an activity service backed by the in-memory store.
type Env struct {
	Store      *FailingStore
	Directions *lessonplan.Repository
	Logger     *logsvc.MemoryLogger
	Svc        *activity.Service
}

func NewEnv(t *testing.T) *Env {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	store := &FailingStore{RecordStore: db}
	directions := lessonplan.NewRepository(store)
	logger := logsvc.NewMemoryLogger()
	return &Env{
		Store:      store,
		Directions: directions,
		Logger:     logger,
		Svc:        activity.NewService(store, directions, locksvc.NewLocalLocker(0), logger),
	}
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	activity.InitValidators(validate, translator)
	return validate
}

func InsertActivity(t *testing.T, svc *activity.Service, lessonID string, typ activity.Type, name string) activity.Activity {
	act, err := svc.Insert(context.Background(), activity.NewActivity{LessonID: lessonID, Type: typ, Name: name})
	if err != nil {
		t.Fatalf("InsertActivity() failed: %v", err)
	}
	return act
}

func CreateDirection(t *testing.T, repo *lessonplan.Repository, planID, activityID, content string) lessonplan.Direction {
	dir, err := repo.Create(context.Background(), lessonplan.NewDirection{LessonPlanID: planID, ActivityID: activityID, Content: content})
	if err != nil {
		t.Fatalf("CreateDirection() failed: %v", err)
	}
	return dir
}

// Names returns the activity names in list order.
func Names(acts []activity.Activity) []string {
	names := make([]string, len(acts))
	for i, a := range acts {
		names[i] = a.Name
	}
	return names
}

// FailingStore makes chosen operations of the wrapped store fail with ErrInjected.
type FailingStore struct {
	core.RecordStore

	mu    sync.Mutex
	fails map[string]bool // "op collection"
}

var _ core.RecordStore = (*FailingStore)(nil)

// FailOn makes op ("select", "insert", "update", "delete", "batch update") fail on collection.
func (s *FailingStore) FailOn(op, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails == nil {
		s.fails = make(map[string]bool)
	}
	s.fails[op+" "+collection] = true
}

func (s *FailingStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails = nil
}

func (s *FailingStore) check(op, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails[op+" "+collection] {
		return core.NewPersistenceError(op, collection, ErrInjected)
	}
	return nil
}

func (s *FailingStore) Select(ctx context.Context, collection string, where core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	if err := s.check("select", collection); err != nil {
		return nil, err
	}
	return s.RecordStore.Select(ctx, collection, where, ordering...)
}

func (s *FailingStore) Insert(ctx context.Context, collection string, rec core.Record) (core.Record, error) {
	if err := s.check("insert", collection); err != nil {
		return nil, err
	}
	return s.RecordStore.Insert(ctx, collection, rec)
}

func (s *FailingStore) Update(ctx context.Context, collection string, where core.Filter, patch core.Record) (int, error) {
	if err := s.check("update", collection); err != nil {
		return 0, err
	}
	return s.RecordStore.Update(ctx, collection, where, patch)
}

func (s *FailingStore) Delete(ctx context.Context, collection string, where core.Filter) (int, error) {
	if err := s.check("delete", collection); err != nil {
		return 0, err
	}
	return s.RecordStore.Delete(ctx, collection, where)
}

func (s *FailingStore) BatchUpdate(ctx context.Context, collection string, patches []core.KeyedPatch) error {
	if err := s.check("batch update", collection); err != nil {
		return err
	}
	return s.RecordStore.BatchUpdate(ctx, collection, patches)
}
