package wizard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/persist"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tracker"
)

// Stage names one phase of the submission pipeline, in execution order.
type Stage int

const (
	StageIssue Stage = iota
	StageService
	StageFields
	StageTasks
	StageLinks
	StageSubtasks
	StagePatch
	StageDone
)

// String returns the user-facing stage label.
func (s Stage) String() string {
	switch s {
	case StageIssue:
		return "creating tracker issue"
	case StageService:
		return "creating service"
	case StageFields:
		return "creating fields"
	case StageTasks:
		return "creating tasks"
	case StageLinks:
		return "linking tasks to fields"
	case StageSubtasks:
		return "creating sub-issues"
	case StagePatch:
		return "storing sub-issue keys"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// StageError reports which pipeline stage failed. Earlier stages' rows stay
// in place; there is no compensating rollback.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TrackerAPI is the slice of the tracker client the pipeline needs.
type TrackerAPI interface {
	CreateCustomerRequest(ctx context.Context, in tracker.CreateServiceInput) (string, error)
	CreateSubtask(ctx context.Context, in tracker.SubtaskInput) (string, error)
}

// PersistAPI is the slice of the persistence client the pipeline needs.
type PersistAPI interface {
	CreateService(ctx context.Context, svc domain.Service, idempotencyKey string) (domain.Service, error)
	CreateField(ctx context.Context, serviceID string, lot domain.Lot, idempotencyKey string) (string, error)
	CreateTask(ctx context.Context, serviceID string, task domain.Task, idempotencyKey string) (domain.Task, error)
	CreateTaskFieldBatch(ctx context.Context, links []persist.TaskFieldLink, idempotencyKey string) error
	UpdateTask(ctx context.Context, taskID string, patch map[string]any) error
}

// Pipeline executes the ordered, non-transactional submission sequence:
// tracker issue -> service row -> field rows -> task rows -> task-field
// links -> sub-issues -> task patches. Sibling field creations run
// concurrently; everything across stages is strictly sequential because each
// stage consumes the previous stage's generated IDs.
//
// Every run carries a fresh idempotency key forwarded on create calls, so
// re-running the pipeline after a partial failure does not duplicate rows on
// backends that honor the key. The pipeline itself never deletes anything.
type Pipeline struct {
	tracker TrackerAPI
	persist PersistAPI
	log     *zap.Logger

	// AppBaseURL is the root for sub-issue deep links back into the app.
	AppBaseURL string
	// RequestedBy is the email the tracker issue is opened on behalf of.
	RequestedBy string
}

// Result reports what a successful run created.
type Result struct {
	Service     domain.Service
	Tasks       []domain.Task // With row IDs and sub-issue keys set
	FieldRowIDs []string
	IssueKey    string
}

// NewPipeline creates a submission pipeline.
func NewPipeline(t TrackerAPI, p PersistAPI, log *zap.Logger, appBaseURL, requestedBy string) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{tracker: t, persist: p, log: log, AppBaseURL: appBaseURL, RequestedBy: requestedBy}
}

// Run executes the pipeline for the store's current state. Progress is
// reported per stage through report (may be nil). On error, the returned
// StageError names the stage that failed; earlier stages' rows remain.
func (p *Pipeline) Run(ctx context.Context, store *Store, report func(Stage)) (*Result, error) {
	notify := func(st Stage) {
		if report != nil {
			report(st)
		}
	}

	protocol, err := store.Protocol()
	if err != nil {
		return nil, &StageError{Stage: StageIssue, Err: err}
	}
	project := store.Project()
	lots := store.Cascade().SelectedLots()
	tasks := store.EnabledTasks()
	runKey := uuid.NewString()

	log := p.log.With(zap.String("run", runKey), zap.String("project", project.ID))
	log.Info("submission started",
		zap.String("protocol", protocol.ID),
		zap.Int("lots", len(lots)),
		zap.Int("tasks", len(tasks)))

	// Stage 1: tracker issue. Failure here aborts with nothing created.
	notify(StageIssue)
	issueKey, err := p.tracker.CreateCustomerRequest(ctx, tracker.CreateServiceInput{
		Name:           store.ServiceName(),
		Description:    fmt.Sprintf("Service %s for project %s", store.ServiceName(), project.Name),
		UserEmail:      p.RequestedBy,
		ServiceDeskID:  project.ServiceDeskID,
		RequestTypeID:  project.RequestTypeID,
		IdempotencyKey: runKey + ":issue",
	})
	if err != nil {
		log.Error("issue creation failed", zap.Error(err))
		return nil, &StageError{Stage: StageIssue, Err: err}
	}

	// Stage 2: service row referencing the issue key.
	notify(StageService)
	service, err := p.persist.CreateService(ctx, domain.Service{
		ProjectID:    project.ID,
		Name:         store.ServiceName(),
		TmpRequestID: protocol.TmProtocolID,
		RequestID:    issueKey,
		ProtocolID:   protocol.ID,
	}, runKey+":service")
	if err != nil {
		log.Error("service creation failed", zap.Error(err))
		return nil, &StageError{Stage: StageService, Err: err}
	}

	// Stage 3: field rows, one per lot. Siblings are independent, so they
	// run concurrently; IDs land at their lot's index.
	notify(StageFields)
	fieldRowIDs := make([]string, len(lots))
	g, gctx := errgroup.WithContext(ctx)
	for i, lot := range lots {
		g.Go(func() error {
			id, err := p.persist.CreateField(gctx, service.ID, lot, fmt.Sprintf("%s:field:%d", runKey, i))
			if err != nil {
				return err
			}
			fieldRowIDs[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("field creation failed", zap.Error(err))
		return nil, &StageError{Stage: StageFields, Err: err}
	}

	// Stage 4: task rows, already deduplicated by template key.
	notify(StageTasks)
	created := make([]domain.Task, len(tasks))
	for i, task := range tasks {
		created[i], err = p.persist.CreateTask(ctx, service.ID, task, fmt.Sprintf("%s:task:%d", runKey, i))
		if err != nil {
			log.Error("task creation failed", zap.String("task", task.TaskName), zap.Error(err))
			return nil, &StageError{Stage: StageTasks, Err: err}
		}
	}

	// Stage 5: the full task x field cross-product, one batch call.
	notify(StageLinks)
	links := make([]persist.TaskFieldLink, 0, len(created)*len(fieldRowIDs))
	for _, task := range created {
		for _, fieldRowID := range fieldRowIDs {
			links = append(links, persist.TaskFieldLink{TaskID: task.ID, FieldID: fieldRowID})
		}
	}
	if err := p.persist.CreateTaskFieldBatch(ctx, links, runKey+":links"); err != nil {
		log.Error("task-field batch failed", zap.Error(err))
		return nil, &StageError{Stage: StageLinks, Err: err}
	}

	// Stage 6: one sub-issue per task, carrying the deep link to its detail
	// page in the app.
	notify(StageSubtasks)
	for i := range created {
		key, err := p.tracker.CreateSubtask(ctx, tracker.SubtaskInput{
			ParentIssueKey: issueKey,
			Summary:        created[i].TaskName,
			UserEmail:      created[i].UserEmail,
			Description:    fmt.Sprintf("Task %s of service %s", created[i].TaskName, store.ServiceName()),
			DeepLinkURL:    p.taskDeepLink(project, created[i].ID),
			TaskType:       created[i].TaskType,
			ServiceDeskID:  project.ServiceDeskID,
			IdempotencyKey: fmt.Sprintf("%s:subtask:%d", runKey, i),
		})
		if err != nil {
			log.Error("subtask creation failed", zap.String("task", created[i].TaskName), zap.Error(err))
			return nil, &StageError{Stage: StageSubtasks, Err: err}
		}
		created[i].SubtaskID = key
	}

	// Stage 7: patch each task row with its sub-issue key.
	notify(StagePatch)
	for i := range created {
		patch := map[string]any{"subtaskId": created[i].SubtaskID}
		if err := p.persist.UpdateTask(ctx, created[i].ID, patch); err != nil {
			log.Error("task patch failed", zap.String("task", created[i].ID), zap.Error(err))
			return nil, &StageError{Stage: StagePatch, Err: err}
		}
	}

	notify(StageDone)
	log.Info("submission finished", zap.String("issue", issueKey), zap.String("service", service.ID))
	return &Result{
		Service:     service,
		Tasks:       created,
		FieldRowIDs: fieldRowIDs,
		IssueKey:    issueKey,
	}, nil
}

func (p *Pipeline) taskDeepLink(project domain.Project, taskID string) string {
	return fmt.Sprintf("%s/domains/%s/projects/%s/tasks/%s",
		p.AppBaseURL, project.DomainID, project.ID, taskID)
}
