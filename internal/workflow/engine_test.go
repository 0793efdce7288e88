package workflow_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"prefect-admin/internal/models"
	"prefect-admin/internal/service"
	"prefect-admin/internal/store"
	"prefect-admin/internal/testutil"
	"prefect-admin/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	store    *store.Store
	engine   *workflow.Engine
	projects *service.ProjectService

	creator, engineer, second, third, archiver, viewer workflow.Actor
}

func actorFor(u models.User) workflow.Actor {
	return workflow.Actor{UserID: u.ID, UserName: u.DisplayName(), Role: u.Role}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	s := store.New(db)
	clock := testutil.NewClock()
	engine := workflow.NewEngine(s,
		workflow.WithClock(clock.Now),
		workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &fixture{
		db:       db,
		store:    s,
		engine:   engine,
		projects: service.NewProjectService(s, engine),
		creator:  actorFor(testutil.CreateUser(t, db, "creator", models.RoleCreator)),
		engineer: actorFor(testutil.CreateUser(t, db, "engineer", models.RoleEngineer)),
		second:   actorFor(testutil.CreateUser(t, db, "reviewer2", models.RoleSecondReviewer)),
		third:    actorFor(testutil.CreateUser(t, db, "reviewer3", models.RoleThirdReviewer)),
		archiver: actorFor(testutil.CreateUser(t, db, "archiver", models.RoleArchiver)),
		viewer:   actorFor(testutil.CreateUser(t, db, "viewer", models.RoleViewer)),
	}
}

func (f *fixture) newProject(t *testing.T, code string) uint {
	t.Helper()
	p := &models.Project{ProjectCode: code, ProjectName: "Project " + code}
	require.NoError(t, f.projects.Create(context.Background(), p, f.creator))
	return p.ID
}

// advance drives a fresh project up to the given status.
func (f *fixture) advance(t *testing.T, id uint, to models.PrefectStatus) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		at  models.PrefectStatus
		run func() error
	}{
		{models.StatusEngineerEdit, func() error { _, err := f.engine.SendToEngineer(ctx, id, f.creator, "go"); return err }},
		{models.StatusSecondReview, func() error { _, err := f.engine.EngineerSubmit(ctx, id, f.engineer, "done"); return err }},
		{models.StatusThirdReview, func() error {
			_, err := f.engine.SecondReview(ctx, id, f.second, "ok", models.StatusThirdReview)
			return err
		}},
		{models.StatusToArchive, func() error {
			_, err := f.engine.ThirdReview(ctx, id, f.third, "ok", models.StatusToArchive)
			return err
		}},
		{models.StatusArchived, func() error { _, err := f.engine.Archive(ctx, id, f.archiver, "filed"); return err }},
	}
	for _, step := range steps {
		require.NoError(t, step.run())
		if step.at == to {
			return
		}
	}
}

type snapshot struct {
	Status          models.PrefectStatus
	ShowInvoiceSeal bool
	Mirror          models.PrefectStatus
	Opinions        int64
}

func (f *fixture) snapshot(t *testing.T, id uint) snapshot {
	t.Helper()
	ctx := context.Background()
	prefect, err := f.store.GetPrefectByProjectID(ctx, id)
	require.NoError(t, err)
	project, err := f.store.GetProject(ctx, id)
	require.NoError(t, err)
	var n int64
	require.NoError(t, f.db.Model(&models.PrefectOpinion{}).Where("project_id = ?", id).Count(&n).Error)
	return snapshot{
		Status:          prefect.CurrentStatus,
		ShowInvoiceSeal: prefect.ShowInvoiceSeal,
		Mirror:          project.PrefectStatus,
		Opinions:        n,
	}
}

func (f *fixture) assertConsistent(t *testing.T, id uint) snapshot {
	t.Helper()
	snap := f.snapshot(t, id)
	assert.True(t, snap.Status.Valid(), "status %q is not a known code", snap.Status)
	assert.Equal(t, snap.Status, snap.Mirror, "project mirror out of sync")
	assert.Equal(t, snap.Status.ShowsInvoiceSeal(), snap.ShowInvoiceSeal)
	return snap
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newProject(t, "XM001")

	snap := f.assertConsistent(t, id)
	assert.Equal(t, models.StatusCreate, snap.Status)
	assert.Zero(t, snap.Opinions)

	res, err := f.engine.SendToEngineer(ctx, id, f.creator, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreate, res.From)
	assert.Equal(t, models.StatusEngineerEdit, res.To)
	snap = f.assertConsistent(t, id)
	assert.Equal(t, models.StatusEngineerEdit, snap.Status)
	assert.EqualValues(t, 1, snap.Opinions)

	_, err = f.engine.EngineerSubmit(ctx, id, f.engineer, "fixed the drawings")
	require.NoError(t, err)
	snap = f.assertConsistent(t, id)
	assert.Equal(t, models.StatusSecondReview, snap.Status)
	assert.True(t, snap.ShowInvoiceSeal)
	assert.EqualValues(t, 2, snap.Opinions)

	_, err = f.engine.SecondReview(ctx, id, f.second, "looks good", models.StatusThirdReview)
	require.NoError(t, err)
	snap = f.assertConsistent(t, id)
	assert.Equal(t, models.StatusThirdReview, snap.Status)
	assert.True(t, snap.ShowInvoiceSeal)
	assert.EqualValues(t, 3, snap.Opinions)

	_, err = f.engine.ThirdReview(ctx, id, f.third, "approved", models.StatusToArchive)
	require.NoError(t, err)
	snap = f.assertConsistent(t, id)
	assert.Equal(t, models.StatusToArchive, snap.Status)
	assert.False(t, snap.ShowInvoiceSeal)
	assert.EqualValues(t, 4, snap.Opinions)

	page, err := f.engine.ListToArchive(ctx, 1, 10, f.archiver)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, id, page.Rows[0].ID)

	res, err = f.engine.Archive(ctx, id, f.archiver, "box 12")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, res.To)
	snap = f.assertConsistent(t, id)
	assert.Equal(t, models.StatusArchived, snap.Status)
	assert.EqualValues(t, 5, snap.Opinions)

	page, err = f.engine.ListToArchive(ctx, 1, 10, f.archiver)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Zero(t, page.Total)

	history, err := f.engine.OpinionHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 5)
	nodes := make([]models.PrefectStatus, 0, len(history))
	for _, o := range history {
		nodes = append(nodes, o.NodeCode)
	}
	assert.Equal(t, []models.PrefectStatus{
		models.StatusToArchive,
		models.StatusThirdReview,
		models.StatusSecondReview,
		models.StatusEngineerEdit,
		models.StatusCreate,
	}, nodes)
}

func TestEngineerSubmitBeforeDispatchLeavesStoresUnchanged(t *testing.T) {
	f := newFixture(t)
	id := f.newProject(t, "XM002")
	before := f.snapshot(t, id)

	_, err := f.engine.EngineerSubmit(context.Background(), id, f.engineer, "too early")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, before, f.snapshot(t, id))
}

func TestReviewTargetMustBeAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newProject(t, "XM003")
	f.advance(t, id, models.StatusSecondReview)
	before := f.snapshot(t, id)

	for _, target := range []models.PrefectStatus{models.StatusArchived, models.StatusToArchive, models.StatusCreate, "", "99"} {
		_, err := f.engine.SecondReview(ctx, id, f.second, "ok", target)
		require.ErrorIs(t, err, workflow.ErrInvalidTransition, "target %q", target)
	}
	assert.Equal(t, before, f.snapshot(t, id))

	other := f.newProject(t, "XM003B")
	f.advance(t, other, models.StatusThirdReview)
	_, err := f.engine.ThirdReview(ctx, other, f.third, "ok", models.StatusThirdReview)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, models.StatusThirdReview, f.snapshot(t, other).Status)
}

func TestReviewRequiresOpinion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("second review", func(t *testing.T) {
		id := f.newProject(t, "XM004")
		f.advance(t, id, models.StatusSecondReview)
		before := f.snapshot(t, id)

		_, err := f.engine.SecondReview(ctx, id, f.second, "   ", models.StatusThirdReview)
		require.ErrorIs(t, err, workflow.ErrMissingOpinion)
		assert.Equal(t, before, f.snapshot(t, id))

		res, err := f.engine.SecondReview(ctx, id, f.second, "checked", models.StatusThirdReview)
		require.NoError(t, err)

		after := f.snapshot(t, id)
		assert.Equal(t, before.Opinions+1, after.Opinions)

		nodeOps, err := f.engine.NodeOpinions(ctx, id, models.StatusSecondReview)
		require.NoError(t, err)
		require.Len(t, nodeOps, 1)
		assert.Equal(t, res.OpinionID, nodeOps[0].ID)
		assert.Equal(t, "checked", nodeOps[0].OpinionContent)
		assert.Equal(t, models.RoleSecondReviewer, nodeOps[0].OperatorRole)
	})

	t.Run("third review", func(t *testing.T) {
		id := f.newProject(t, "XM005")
		f.advance(t, id, models.StatusThirdReview)

		_, err := f.engine.ThirdReview(ctx, id, f.third, "", models.StatusToArchive)
		require.ErrorIs(t, err, workflow.ErrMissingOpinion)

		_, err = f.engine.ThirdReview(ctx, id, f.third, "fine", models.StatusToArchive)
		require.NoError(t, err)
	})

	t.Run("other stages accept blank opinions", func(t *testing.T) {
		id := f.newProject(t, "XM006")
		_, err := f.engine.SendToEngineer(ctx, id, f.creator, "")
		require.NoError(t, err)
		_, err = f.engine.EngineerSubmit(ctx, id, f.engineer, "")
		require.NoError(t, err)
	})
}

func TestRejectReturnsProjectToEngineer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newProject(t, "XM007")
	f.advance(t, id, models.StatusThirdReview)

	res, err := f.engine.ThirdReview(ctx, id, f.third, "numbers wrong", models.StatusRejectEngineer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectEngineer, res.To)
	assert.False(t, res.ShowInvoiceSeal)
	snap := f.assertConsistent(t, id)
	assert.Equal(t, models.StatusRejectEngineer, snap.Status)

	res, err = f.engine.EngineerSubmit(ctx, id, f.engineer, "recalculated")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectEngineer, res.From)
	assert.Equal(t, models.StatusSecondReview, res.To)
	f.assertConsistent(t, id)

	ops, err := f.engine.NodeOpinions(ctx, id, models.StatusRejectEngineer)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "recalculated", ops[0].OpinionContent)

	_, err = f.engine.SecondReview(ctx, id, f.second, "still wrong", models.StatusRejectEngineer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejectEngineer, f.assertConsistent(t, id).Status)
}

func TestRoleIsCheckedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// unknown project, wrong role: role wins
	_, err := f.engine.SendToEngineer(ctx, 9999, f.engineer, "")
	require.ErrorIs(t, err, workflow.ErrUnauthorized)

	id := f.newProject(t, "XM008")
	before := f.snapshot(t, id)

	calls := map[string]func() error{
		"send by viewer": func() error { _, err := f.engine.SendToEngineer(ctx, id, f.viewer, ""); return err },
		"submit by creator": func() error {
			_, err := f.engine.EngineerSubmit(ctx, id, f.creator, "")
			return err
		},
		"second by third": func() error {
			_, err := f.engine.SecondReview(ctx, id, f.third, "x", models.StatusThirdReview)
			return err
		},
		"third by second": func() error {
			_, err := f.engine.ThirdReview(ctx, id, f.second, "x", models.StatusToArchive)
			return err
		},
		"archive by creator": func() error { _, err := f.engine.Archive(ctx, id, f.creator, ""); return err },
	}
	for name, call := range calls {
		require.ErrorIs(t, call(), workflow.ErrUnauthorized, name)
	}
	assert.Equal(t, before, f.snapshot(t, id))
}

func TestValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// missing record before state
	_, err := f.engine.SecondReview(ctx, 9999, f.second, "", "")
	require.ErrorIs(t, err, workflow.ErrNotFound)

	// state before target and opinion
	id := f.newProject(t, "XM009")
	_, err = f.engine.SecondReview(ctx, id, f.second, "", models.StatusArchived)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	// target before opinion
	f.advance(t, id, models.StatusSecondReview)
	_, err = f.engine.SecondReview(ctx, id, f.second, "", models.StatusArchived)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	require.NotErrorIs(t, err, workflow.ErrMissingOpinion)

	_, err = f.engine.SecondReview(ctx, id, f.second, "", models.StatusThirdReview)
	require.ErrorIs(t, err, workflow.ErrMissingOpinion)
}

func TestArchivedProjectIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newProject(t, "XM010")
	f.advance(t, id, models.StatusArchived)

	_, err := f.engine.Archive(ctx, id, f.archiver, "again")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, err = f.engine.SendToEngineer(ctx, id, f.creator, "")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestBatchReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]uint, 0, 3)
	for i := 0; i < 3; i++ {
		id := f.newProject(t, fmt.Sprintf("BT%03d", i))
		f.advance(t, id, models.StatusSecondReview)
		ids = append(ids, id)
	}

	out, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
		ProjectIDs:    ids,
		Actor:         f.second,
		Opinion:       "batch ok",
		CurrentStatus: models.StatusSecondReview,
		TargetStatus:  models.StatusThirdReview,
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	for _, id := range ids {
		snap := f.assertConsistent(t, id)
		assert.Equal(t, models.StatusThirdReview, snap.Status)
		assert.EqualValues(t, 3, snap.Opinions)
	}

	out, err = f.engine.BatchThirdReview(ctx, workflow.BatchRequest{
		ProjectIDs:    ids,
		Actor:         f.third,
		Opinion:       "batch ok",
		CurrentStatus: models.StatusThirdReview,
		TargetStatus:  models.StatusToArchive,
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)

	page, err := f.engine.ListToArchive(ctx, 1, 2, f.archiver)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Rows, 2)
	assert.True(t, page.HasNext)
}

func TestBatchRollsBackWhenOneProjectFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		id := f.newProject(t, fmt.Sprintf("RB%03d", i))
		f.advance(t, id, models.StatusSecondReview)
		ids = append(ids, id)
	}
	// last one is still at engineer edit
	lagging := f.newProject(t, "RB-LAG")
	f.advance(t, lagging, models.StatusEngineerEdit)
	ids = append(ids, lagging)

	before := make(map[uint]snapshot, len(ids))
	for _, id := range ids {
		before[id] = f.snapshot(t, id)
	}

	_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
		ProjectIDs:    ids,
		Actor:         f.second,
		Opinion:       "batch",
		CurrentStatus: models.StatusSecondReview,
		TargetStatus:  models.StatusThirdReview,
	})
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	for _, id := range ids {
		assert.Equal(t, before[id], f.snapshot(t, id), "project %d changed", id)
	}

	t.Run("duplicate ids", func(t *testing.T) {
		dup := []uint{ids[0], ids[1], ids[0]}
		_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
			ProjectIDs:    dup,
			Actor:         f.second,
			Opinion:       "batch",
			CurrentStatus: models.StatusSecondReview,
			TargetStatus:  models.StatusThirdReview,
		})
		require.ErrorIs(t, err, workflow.ErrInvalidTransition)
		for _, id := range dup {
			assert.Equal(t, before[id], f.snapshot(t, id))
		}
	})

	t.Run("current status mismatch", func(t *testing.T) {
		_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
			ProjectIDs:    ids[:1],
			Actor:         f.second,
			Opinion:       "batch",
			CurrentStatus: models.StatusThirdReview,
			TargetStatus:  models.StatusThirdReview,
		})
		require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})

	t.Run("missing current status", func(t *testing.T) {
		for _, current := range []models.PrefectStatus{"", "99", models.StatusToArchive} {
			_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
				ProjectIDs:    ids[:1],
				Actor:         f.second,
				Opinion:       "batch",
				CurrentStatus: current,
				TargetStatus:  models.StatusThirdReview,
			})
			require.ErrorIs(t, err, workflow.ErrInvalidTransition, "current %q", current)
			assert.Equal(t, before[ids[0]], f.snapshot(t, ids[0]))
		}
	})

	t.Run("blank opinion", func(t *testing.T) {
		_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{
			ProjectIDs:    ids[:2],
			Actor:         f.second,
			CurrentStatus: models.StatusSecondReview,
			TargetStatus:  models.StatusThirdReview,
		})
		require.ErrorIs(t, err, workflow.ErrMissingOpinion)
	})

	t.Run("wrong role", func(t *testing.T) {
		_, err := f.engine.BatchThirdReview(ctx, workflow.BatchRequest{
			ProjectIDs:    ids[:1],
			Actor:         f.second,
			Opinion:       "x",
			CurrentStatus: models.StatusThirdReview,
			TargetStatus:  models.StatusToArchive,
		})
		require.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := f.engine.BatchSecondReview(ctx, workflow.BatchRequest{Actor: f.second})
		require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})
}

func TestOpinionHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.OpinionHistory(ctx, 4242)
	require.ErrorIs(t, err, workflow.ErrNotFound)

	id := f.newProject(t, "OH001")
	history, err := f.engine.OpinionHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	f.advance(t, id, models.StatusThirdReview)
	_, err = f.engine.ThirdReview(ctx, id, f.third, "redo", models.StatusRejectEngineer)
	require.NoError(t, err)
	f.advance(t, id, models.StatusSecondReview)

	history, err = f.engine.OpinionHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].CreatedAt.After(history[i].CreatedAt),
			"opinion %d not newer than %d", history[i-1].ID, history[i].ID)
	}

	_, err = f.engine.NodeOpinions(ctx, id, "77")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestListToArchiveRequiresArchiver(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ListToArchive(context.Background(), 1, 10, f.third)
	require.ErrorIs(t, err, workflow.ErrUnauthorized)
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newProject(t, "PF001")

	require.NoError(t, f.db.Migrator().DropTable(&models.PrefectOpinion{}))

	_, err := f.engine.SendToEngineer(ctx, id, f.creator, "")
	require.ErrorIs(t, err, workflow.ErrPersistence)
	assert.Equal(t, "persistence", workflow.Kind(err))

	var pe *workflow.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "insert opinion", pe.Op)

	prefect, err := f.store.GetPrefectByProjectID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreate, prefect.CurrentStatus)
	project, err := f.store.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreate, project.PrefectStatus)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", workflow.Kind(nil))
	assert.Equal(t, "unauthorized", workflow.Kind(fmt.Errorf("x: %w", workflow.ErrUnauthorized)))
	assert.Equal(t, "not_found", workflow.Kind(workflow.ErrNotFound))
	assert.Equal(t, "invalid_transition", workflow.Kind(workflow.ErrInvalidTransition))
	assert.Equal(t, "missing_opinion", workflow.Kind(workflow.ErrMissingOpinion))
	assert.Equal(t, "internal", workflow.Kind(fmt.Errorf("boom")))
}
