package lesson_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/lesson"
	inmemdb "github.com/mwalimu/somo/storage/database/inmem"
)

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	return validator.New()
}

func newTestService(t *testing.T) *lesson.Service {
	t.Helper()
	return lesson.NewService(inmemdb.NewLessonRepository(inmemdb.NewDB()), &core.LoggerMock{})
}

func createPlan(t *testing.T, svc *lesson.Service, ownerID, title string) lesson.LessonPlan {
	t.Helper()
	plan, err := svc.Create(context.Background(), ownerID, lesson.NewLessonPlan{
		Title:   title,
		Subject: "Maths",
		Grade:   "3",
		Content: "Counting to 100 with bottle caps",
	})
	require.NoError(t, err)
	return plan
}

func Test_Service_planCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	plan := createPlan(t, svc, "owner-1", "Counting")
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "owner-1", plan.OwnerID)
	assert.False(t, plan.UseForTraining)

	got, err := svc.Get(ctx, "owner-1", plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)

	updated, err := svc.Update(ctx, "owner-1", plan.ID, lesson.UpdateLessonPlan{
		Title:   "Counting v2",
		Subject: plan.Subject,
		Grade:   plan.Grade,
		Content: plan.Content,
	})
	require.NoError(t, err)
	assert.Equal(t, "Counting v2", updated.Title)
	assert.Equal(t, "Maths", updated.Subject)

	require.NoError(t, svc.Delete(ctx, "owner-1", plan.ID))
	_, err = svc.Get(ctx, "owner-1", plan.ID)
	assert.ErrorIs(t, err, lesson.ErrNotFound)
}

func Test_Service_ownershipReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	plan := createPlan(t, svc, "owner-1", "Counting")

	_, err := svc.Get(ctx, "intruder", plan.ID)
	assert.ErrorIs(t, err, lesson.ErrNotFound)

	_, err = svc.Update(ctx, "intruder", plan.ID, lesson.UpdateLessonPlan{Title: "Hijacked"})
	assert.ErrorIs(t, err, lesson.ErrNotFound)

	err = svc.Delete(ctx, "intruder", plan.ID)
	assert.ErrorIs(t, err, lesson.ErrNotFound)

	// the plan is untouched
	got, err := svc.Get(ctx, "owner-1", plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Counting", got.Title)

	plans, err := svc.QueryByOwner(ctx, "intruder")
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func Test_Service_trainingOptIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	createPlan(t, svc, "owner-1", "Counting")
	plan2 := createPlan(t, svc, "owner-2", "Reading")

	// no ownership check: curators opt in any teacher's plan
	got, err := svc.SetTrainingOptIn(ctx, plan2.ID, true)
	require.NoError(t, err)
	assert.True(t, got.UseForTraining)

	set, err := svc.TrainingSet(ctx)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, plan2.ID, set[0].ID)

	all, err := svc.AllPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.SetTrainingOptIn(ctx, plan2.ID, false)
	require.NoError(t, err)
	set, err = svc.TrainingSet(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func Test_Service_SetDriveFileID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	plan := createPlan(t, svc, "owner-1", "Counting")

	got, err := svc.SetDriveFileID(ctx, "owner-1", plan.ID, "drive-123")
	require.NoError(t, err)
	assert.Equal(t, "drive-123", got.DriveFileID)

	_, err = svc.SetDriveFileID(ctx, "intruder", plan.ID, "drive-456")
	assert.ErrorIs(t, err, lesson.ErrNotFound)
}

func Test_Service_practiceNotes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	plan := createPlan(t, svc, "owner-1", "Counting")

	note, err := svc.CreateNote(ctx, "owner-1", lesson.NewPracticeNote{
		LessonID:   plan.ID,
		Title:      "Counting unit",
		Reflection: "Bottle caps kept everyone engaged.",
	})
	require.NoError(t, err)
	assert.Equal(t, plan.ID, note.LessonID)

	// a note may not reference another owner's plan
	_, err = svc.CreateNote(ctx, "intruder", lesson.NewPracticeNote{
		LessonID:   plan.ID,
		Title:      "Stolen",
		Reflection: "nope",
	})
	assert.ErrorIs(t, err, lesson.ErrNotFound)

	// an unlinked note is fine
	free, err := svc.CreateNote(ctx, "owner-1", lesson.NewPracticeNote{
		Title:      "Free reading",
		Reflection: "Too noisy.",
	})
	require.NoError(t, err)
	assert.Empty(t, free.LessonID)

	notes, err := svc.QueryNotesByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	err = svc.DeleteNote(ctx, "intruder", note.ID)
	assert.ErrorIs(t, err, lesson.ErrNotFound)
	require.NoError(t, svc.DeleteNote(ctx, "owner-1", note.ID))

	notes, err = svc.QueryNotesByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func Test_UpdateLessonPlan_emptyFieldsKeepOriginals(t *testing.T) {
	validate := newValidate(t)
	orig := lesson.LessonPlan{Title: "Counting", Subject: "Maths", Grade: "3", Content: "caps"}

	ul := lesson.UpdateLessonPlan{Title: "  Counting v2  "}
	require.NoError(t, ul.Validate(orig, validate))
	assert.Equal(t, "Counting v2", ul.Title)
	assert.Equal(t, "Maths", ul.Subject)
	assert.Equal(t, "3", ul.Grade)
	assert.Equal(t, "caps", ul.Content)
}
