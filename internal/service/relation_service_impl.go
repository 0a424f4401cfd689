package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/google/uuid"
)

type relationService struct {
	relations repository.RelationRepo
	items     WorkItemService
	uow       db.UnitOfWork
	schedule  ScheduleService
	observer  UseCaseObserver
}

// NewRelationService creates follows relations and reschedules their
// successors. parent_child relations are delegated to items.SetParent.
func NewRelationService(
	relations repository.RelationRepo,
	items WorkItemService,
	uow db.UnitOfWork,
	schedule ScheduleService,
	observers ...UseCaseObserver,
) RelationService {
	return &relationService{
		relations: relations,
		items:     items,
		uow:       uow,
		schedule:  schedule,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *relationService) Create(ctx context.Context, r *domain.Relation) (outcome *app.ScheduleOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"type": string(r.Type), "from": r.FromID, "to": r.ToID}
	defer observe(ctx, s.observer, "create-relation", startedAt, fields, &err)

	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Type == domain.RelationParentChild {
		parent := r.FromID
		return s.items.SetParent(ctx, r.ToID, &parent)
	}

	n := r.Normalize()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()

	switched := false
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		txRelations := repository.NewSQLiteRelationRepo(tx)

		succ, err := txWorkItems.GetByID(ctx, n.SuccessorID())
		if err != nil {
			return fmt.Errorf("successor %s: %w", n.SuccessorID(), err)
		}
		pred, err := txWorkItems.GetByID(ctx, n.PredecessorID())
		if err != nil {
			return fmt.Errorf("predecessor %s: %w", n.PredecessorID(), err)
		}
		if err := checkNotHierarchy(ctx, txWorkItems, succ.ID, pred.ID); err != nil {
			return err
		}
		if err := checkFollowsCycle(ctx, txRelations, succ.ID, pred.ID); err != nil {
			return err
		}

		existing, err := txRelations.CountBetween(ctx, succ.ID, pred.ID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s already follows %s", domain.ErrInvalidRelation, succ.ID, pred.ID)
		}
		kids, err := txWorkItems.ListChildren(ctx, []string{succ.ID})
		if err != nil {
			return err
		}

		if scheduler.ShouldAutoSwitch(scheduler.SwitchContext{
			Creating:                true,
			Successor:               succ,
			SuccessorHasChildren:    len(kids) > 0,
			ExistingFromPredecessor: existing,
		}) {
			succ.ScheduleMode = domain.ScheduleAutomatic
			if err := txWorkItems.Update(ctx, succ); err != nil {
				return err
			}
			switched = true
		}
		return txRelations.Create(ctx, &n)
	})
	if err != nil {
		return nil, err
	}
	*r = n
	fields["relation"] = n.ID
	fields["auto_switched"] = switched
	return s.reschedule(ctx, n)
}

func (s *relationService) GetByID(ctx context.Context, id string) (*domain.Relation, error) {
	return s.relations.GetByID(ctx, id)
}

// List returns the relations touching workItemID, or all relations when it
// is empty.
func (s *relationService) List(ctx context.Context, workItemID string) ([]domain.Relation, error) {
	if workItemID == "" {
		return s.relations.ListAll(ctx)
	}
	return s.relations.ListFor(ctx, []string{workItemID})
}

func (s *relationService) UpdateLag(ctx context.Context, id string, lag int) (*app.ScheduleOutcome, error) {
	if lag < 0 {
		return nil, fmt.Errorf("%w: lag must be >= 0, got %d", domain.ErrInvalidRelation, lag)
	}
	rel, err := s.relations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.relations.UpdateLag(ctx, id, lag); err != nil {
		return nil, err
	}
	rel.Lag = lag
	return s.reschedule(ctx, *rel)
}

func (s *relationService) Delete(ctx context.Context, id string) (*app.ScheduleOutcome, error) {
	rel, err := s.relations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.relations.Delete(ctx, id); err != nil {
		return nil, err
	}
	return s.reschedule(ctx, *rel)
}

func (s *relationService) reschedule(ctx context.Context, rel domain.Relation) (*app.ScheduleOutcome, error) {
	cause := domain.CausedBy{
		Type:       domain.CauseRelationChanged,
		UserID:     ActingUser(ctx),
		RelationID: rel.ID,
	}
	return s.schedule.Reschedule(ctx, app.NewScheduleRequest(cause, rel.SuccessorID()))
}

// checkNotHierarchy rejects follows relations between an item and one of
// its ancestors.
func checkNotHierarchy(ctx context.Context, workItems repository.WorkItemRepo, a, b string) error {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		ancestors, err := ancestorIDs(ctx, workItems, pair[0])
		if err != nil {
			return err
		}
		for _, id := range ancestors {
			if id == pair[1] {
				return fmt.Errorf("%w: %s is an ancestor of %s", domain.ErrInvalidRelation, pair[1], pair[0])
			}
		}
	}
	return nil
}

// checkFollowsCycle reports a cycle when successor is already reachable from
// predecessor by walking predecessors.
func checkFollowsCycle(ctx context.Context, relations repository.RelationRepo, successor, predecessor string) error {
	via := map[string]string{predecessor: ""}
	frontier := []string{predecessor}
	for len(frontier) > 0 {
		rels, err := relations.ListFor(ctx, frontier)
		if err != nil {
			return err
		}
		inFrontier := make(map[string]bool, len(frontier))
		for _, id := range frontier {
			inFrontier[id] = true
		}
		var next []string
		for _, r := range rels {
			from, to := r.SuccessorID(), r.PredecessorID()
			if !inFrontier[from] {
				continue
			}
			if _, seen := via[to]; seen {
				continue
			}
			via[to] = from
			if to == successor {
				path := []string{successor}
				for cur := from; cur != ""; cur = via[cur] {
					path = append(path, cur)
				}
				return domain.NewCyclicDependencyError(path)
			}
			next = append(next, to)
		}
		frontier = next
	}
	return nil
}
