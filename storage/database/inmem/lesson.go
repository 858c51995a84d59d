package inmemdb

import (
	"context"
	"sort"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/lesson"
)

type lessonRepository struct {
	db *DB
}

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLessonPlan(_ context.Context, plan lesson.LessonPlan) (lesson.LessonPlan, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.plans[plan.ID] = &plan
	return plan, nil
}

func (repo *lessonRepository) GetLessonPlanByID(_ context.Context, id string) (lesson.LessonPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.plans[id]; ok {
		return *p, nil
	}
	return lesson.LessonPlan{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryAllLessonPlans(_ context.Context) ([]lesson.LessonPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	plans := make([]lesson.LessonPlan, 0, len(repo.db.plans))
	for _, p := range repo.db.plans {
		plans = append(plans, *p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans, nil
}

func (repo *lessonRepository) QueryLessonPlansByOwner(_ context.Context, ownerID string, ordering ...core.DBOrdering) ([]lesson.LessonPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	plans := make([]lesson.LessonPlan, 0)
	for _, p := range repo.db.plans {
		if p.OwnerID == ownerID {
			plans = append(plans, *p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].UpdatedAt.After(plans[j].UpdatedAt) })
	return plans, nil
}

func (repo *lessonRepository) QueryTrainingLessonPlans(_ context.Context) ([]lesson.LessonPlan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	plans := make([]lesson.LessonPlan, 0)
	for _, p := range repo.db.plans {
		if p.UseForTraining {
			plans = append(plans, *p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans, nil
}

func (repo *lessonRepository) UpdateLessonPlan(_ context.Context, plan lesson.LessonPlan) (lesson.LessonPlan, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.plans[plan.ID]; !ok {
		return lesson.LessonPlan{}, lesson.ErrNotFound
	}
	repo.db.plans[plan.ID] = &plan
	return plan, nil
}

func (repo *lessonRepository) DeleteLessonPlan(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.plans, id)
	return nil
}

func (repo *lessonRepository) CreatePracticeNote(_ context.Context, note lesson.PracticeNote) (lesson.PracticeNote, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.notes[note.ID] = &note
	return note, nil
}

func (repo *lessonRepository) GetPracticeNoteByID(_ context.Context, id string) (lesson.PracticeNote, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notes[id]; ok {
		return *n, nil
	}
	return lesson.PracticeNote{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryAllPracticeNotes(_ context.Context) ([]lesson.PracticeNote, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notes := make([]lesson.PracticeNote, 0, len(repo.db.notes))
	for _, n := range repo.db.notes {
		notes = append(notes, *n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.Before(notes[j].CreatedAt) })
	return notes, nil
}

func (repo *lessonRepository) QueryPracticeNotesByOwner(_ context.Context, ownerID string, ordering ...core.DBOrdering) ([]lesson.PracticeNote, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notes := make([]lesson.PracticeNote, 0)
	for _, n := range repo.db.notes {
		if n.OwnerID == ownerID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

func (repo *lessonRepository) DeletePracticeNote(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.notes, id)
	return nil
}
