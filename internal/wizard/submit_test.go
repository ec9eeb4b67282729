package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/persist"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tracker"
)

// fakeBackends records every remote call in arrival order and can be told to
// fail a specific call kind.
type fakeBackends struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error

	subtasks []tracker.SubtaskInput
	links    []persist.TaskFieldLink
	patches  map[string]map[string]any

	nextID int
}

func newFakeBackends() *fakeBackends {
	return &fakeBackends{
		fail:    make(map[string]error),
		patches: make(map[string]map[string]any),
	}
}

func (f *fakeBackends) record(kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	return f.fail[kind]
}

func (f *fakeBackends) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *fakeBackends) CreateCustomerRequest(_ context.Context, _ tracker.CreateServiceInput) (string, error) {
	if err := f.record("issue"); err != nil {
		return "", err
	}
	return "REQ-1", nil
}

func (f *fakeBackends) CreateSubtask(_ context.Context, in tracker.SubtaskInput) (string, error) {
	if err := f.record("subtask"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subtasks = append(f.subtasks, in)
	return fmt.Sprintf("SUB-%d", len(f.subtasks)), nil
}

func (f *fakeBackends) CreateService(_ context.Context, svc domain.Service, _ string) (domain.Service, error) {
	if err := f.record("service"); err != nil {
		return domain.Service{}, err
	}
	svc.ID = f.id("svc")
	return svc, nil
}

func (f *fakeBackends) CreateField(_ context.Context, _ string, _ domain.Lot, _ string) (string, error) {
	if err := f.record("field"); err != nil {
		return "", err
	}
	return f.id("fld"), nil
}

func (f *fakeBackends) CreateTask(_ context.Context, _ string, task domain.Task, _ string) (domain.Task, error) {
	if err := f.record("task"); err != nil {
		return domain.Task{}, err
	}
	task.ID = f.id("tsk")
	return task, nil
}

func (f *fakeBackends) CreateTaskFieldBatch(_ context.Context, links []persist.TaskFieldLink, _ string) error {
	if err := f.record("links"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, links...)
	return nil
}

func (f *fakeBackends) UpdateTask(_ context.Context, taskID string, patch map[string]any) error {
	if err := f.record("patch"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches[taskID] = patch
	return nil
}

func (f *fakeBackends) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == kind {
			n++
		}
	}
	return n
}

// lastIndex returns the position of the final call of a kind, or -1.
func (f *fakeBackends) lastIndex(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := -1
	for i, c := range f.calls {
		if c == kind {
			last = i
		}
	}
	return last
}

func (f *fakeBackends) firstIndex(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == kind {
			return i
		}
	}
	return -1
}

// submitReadyStore: protocol with 3 template tasks (2 unique keys), 2 lots
// selected, both tasks assigned, the field visit has a form.
func submitReadyStore(t *testing.T) *Store {
	t.Helper()
	s := seedStore(t)
	require.NoError(t, s.Cascade().ToggleField("lot_1"))
	require.NoError(t, s.Cascade().ToggleField("lot_2"))
	assignAll(t, s)
	return s
}

func TestPipelineHappyPath(t *testing.T) {
	f := newFakeBackends()
	p := NewPipeline(f, f, nil, "https://agtasks.example.com", "admin@example.com")
	s := submitReadyStore(t)

	var stages []Stage
	result, err := p.Run(context.Background(), s, func(st Stage) { stages = append(stages, st) })
	require.NoError(t, err)

	// Exactly: 1 issue, 1 service, 2 fields, 2 tasks (post-dedup), 1 batch
	// of 4 links (2 tasks x 2 lots), 2 subtasks, 2 patches.
	assert.Equal(t, 1, f.count("issue"))
	assert.Equal(t, 1, f.count("service"))
	assert.Equal(t, 2, f.count("field"))
	assert.Equal(t, 2, f.count("task"))
	assert.Equal(t, 1, f.count("links"))
	assert.Len(t, f.links, 4)
	assert.Equal(t, 2, f.count("subtask"))
	assert.Equal(t, 2, f.count("patch"))

	// Cross-stage ordering; sibling order within a stage is unspecified.
	assert.Less(t, f.lastIndex("issue"), f.firstIndex("service"))
	assert.Less(t, f.lastIndex("service"), f.firstIndex("field"))
	assert.Less(t, f.lastIndex("field"), f.firstIndex("task"))
	assert.Less(t, f.lastIndex("task"), f.firstIndex("links"))
	assert.Less(t, f.lastIndex("links"), f.firstIndex("subtask"))
	assert.Less(t, f.lastIndex("subtask"), f.firstIndex("patch"))

	assert.Equal(t, []Stage{
		StageIssue, StageService, StageFields, StageTasks,
		StageLinks, StageSubtasks, StagePatch, StageDone,
	}, stages)

	assert.Equal(t, "REQ-1", result.IssueKey)
	assert.Equal(t, "REQ-1", result.Service.RequestID)
	assert.Equal(t, "prot_1", result.Service.ProtocolID)
	require.Len(t, result.Tasks, 2)
	for _, task := range result.Tasks {
		assert.NotEmpty(t, task.ID)
		assert.NotEmpty(t, task.SubtaskID)
		assert.Equal(t, map[string]any{"subtaskId": task.SubtaskID}, f.patches[task.ID])
	}

	// Sub-issues carry the deep link into the app.
	require.Len(t, f.subtasks, 2)
	for i, sub := range f.subtasks {
		assert.Equal(t, "REQ-1", sub.ParentIssueKey)
		assert.Contains(t, sub.DeepLinkURL,
			"https://agtasks.example.com/domains/dom_1/projects/proj_1/tasks/"+result.Tasks[i].ID)
	}
}

func TestPipelineIssueFailureCreatesNothing(t *testing.T) {
	f := newFakeBackends()
	boom := errors.New("service desk unavailable")
	f.fail["issue"] = boom

	p := NewPipeline(f, f, nil, "https://agtasks.example.com", "admin@example.com")
	_, err := p.Run(context.Background(), submitReadyStore(t), nil)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageIssue, serr.Stage)
	assert.ErrorIs(t, err, boom)

	// Zero rows created, no sub-issue calls attempted.
	assert.Equal(t, []string{"issue"}, f.calls)
}

func TestPipelineStopsAtFailedStage(t *testing.T) {
	f := newFakeBackends()
	f.fail["links"] = errors.New("batch endpoint down")

	p := NewPipeline(f, f, nil, "https://agtasks.example.com", "admin@example.com")
	_, err := p.Run(context.Background(), submitReadyStore(t), nil)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageLinks, serr.Stage)

	// Earlier rows stay; later stages never run.
	assert.Equal(t, 1, f.count("service"))
	assert.Equal(t, 2, f.count("task"))
	assert.Zero(t, f.count("subtask"))
	assert.Zero(t, f.count("patch"))
}

func TestPipelineExcludesDisabledTasks(t *testing.T) {
	f := newFakeBackends()
	p := NewPipeline(f, f, nil, "https://agtasks.example.com", "admin@example.com")

	s := submitReadyStore(t)
	require.NoError(t, s.SetTaskEnabled(0, false))

	result, err := p.Run(context.Background(), s, nil)
	require.NoError(t, err)

	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "TEM-102", result.Tasks[0].TmpSubtaskID)
	// 1 task x 2 lots.
	assert.Len(t, f.links, 2)
}

func TestPipelineRequiresProtocol(t *testing.T) {
	f := newFakeBackends()
	p := NewPipeline(f, f, nil, "https://agtasks.example.com", "admin@example.com")

	_, err := p.Run(context.Background(), New(createTestProject()), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProtocol)
	assert.Empty(t, f.calls)
}
