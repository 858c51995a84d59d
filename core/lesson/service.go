package lesson

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

var ErrNotFound = errors.New("lesson not found")

type (
	Repository interface {
		CreateLessonPlan(ctx context.Context, plan LessonPlan) (LessonPlan, error)
		GetLessonPlanByID(ctx context.Context, id string) (LessonPlan, error)
		QueryAllLessonPlans(ctx context.Context) ([]LessonPlan, error)
		QueryLessonPlansByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]LessonPlan, error)
		QueryTrainingLessonPlans(ctx context.Context) ([]LessonPlan, error)
		UpdateLessonPlan(ctx context.Context, plan LessonPlan) (LessonPlan, error)
		DeleteLessonPlan(ctx context.Context, id string) error

		CreatePracticeNote(ctx context.Context, note PracticeNote) (PracticeNote, error)
		GetPracticeNoteByID(ctx context.Context, id string) (PracticeNote, error)
		QueryAllPracticeNotes(ctx context.Context) ([]PracticeNote, error)
		QueryPracticeNotesByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]PracticeNote, error)
		DeletePracticeNote(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) Create(ctx context.Context, ownerID string, nl NewLessonPlan) (LessonPlan, error) {
	now := time.Now().UTC()
	plan := LessonPlan{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     nl.Title,
		Subject:   nl.Subject,
		Grade:     nl.Grade,
		Content:   nl.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateLessonPlan(ctx, plan)
}

// Get fetches a plan on behalf of ownerID. Other owners' plans read as not
// found rather than forbidden.
func (svc *Service) Get(ctx context.Context, ownerID, id string) (LessonPlan, error) {
	plan, err := svc.repo.GetLessonPlanByID(ctx, id)
	if err != nil {
		return LessonPlan{}, err
	}
	if plan.OwnerID != ownerID {
		return LessonPlan{}, ErrNotFound
	}
	return plan, nil
}

func (svc *Service) QueryByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]LessonPlan, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "updated_at"}}
	}
	return svc.repo.QueryLessonPlansByOwner(ctx, ownerID, ordering...)
}

func (svc *Service) Update(ctx context.Context, ownerID, id string, ul UpdateLessonPlan) (LessonPlan, error) {
	plan, err := svc.Get(ctx, ownerID, id)
	if err != nil {
		return LessonPlan{}, err
	}
	plan.Title = ul.Title
	plan.Subject = ul.Subject
	plan.Grade = ul.Grade
	plan.Content = ul.Content
	plan.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLessonPlan(ctx, plan)
}

func (svc *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := svc.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return svc.repo.DeleteLessonPlan(ctx, id)
}

// SetDriveFileID records the Drive archive of a plan's PDF.
func (svc *Service) SetDriveFileID(ctx context.Context, ownerID, id, fileID string) (LessonPlan, error) {
	plan, err := svc.Get(ctx, ownerID, id)
	if err != nil {
		return LessonPlan{}, err
	}
	plan.DriveFileID = fileID
	plan.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLessonPlan(ctx, plan)
}

// SetTrainingOptIn flips a plan's fine-tuning opt-in. Callers gate this on
// admin privilege; it deliberately skips the ownership check so curators can
// opt in any teacher's plan.
func (svc *Service) SetTrainingOptIn(ctx context.Context, id string, optIn bool) (LessonPlan, error) {
	plan, err := svc.repo.GetLessonPlanByID(ctx, id)
	if err != nil {
		return LessonPlan{}, err
	}
	plan.UseForTraining = optIn
	plan.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLessonPlan(ctx, plan)
}

// TrainingSet returns every plan opted into fine-tuning, all owners included.
func (svc *Service) TrainingSet(ctx context.Context) ([]LessonPlan, error) {
	return svc.repo.QueryTrainingLessonPlans(ctx)
}

// AllPlans is for admin curation; it crosses ownership boundaries.
func (svc *Service) AllPlans(ctx context.Context) ([]LessonPlan, error) {
	return svc.repo.QueryAllLessonPlans(ctx)
}

// AllNotes is for admin curation; it crosses ownership boundaries.
func (svc *Service) AllNotes(ctx context.Context) ([]PracticeNote, error) {
	return svc.repo.QueryAllPracticeNotes(ctx)
}

func (svc *Service) CreateNote(ctx context.Context, ownerID string, np NewPracticeNote) (PracticeNote, error) {
	if np.LessonID != "" {
		// the note may only reference the owner's own plan
		if _, err := svc.Get(ctx, ownerID, np.LessonID); err != nil {
			return PracticeNote{}, err
		}
	}
	now := time.Now().UTC()
	note := PracticeNote{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		LessonID:   np.LessonID,
		Title:      np.Title,
		Reflection: np.Reflection,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreatePracticeNote(ctx, note)
}

func (svc *Service) QueryNotesByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]PracticeNote, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "updated_at"}}
	}
	return svc.repo.QueryPracticeNotesByOwner(ctx, ownerID, ordering...)
}

func (svc *Service) DeleteNote(ctx context.Context, ownerID, id string) error {
	note, err := svc.repo.GetPracticeNoteByID(ctx, id)
	if err != nil {
		return err
	}
	if note.OwnerID != ownerID {
		return ErrNotFound
	}
	return svc.repo.DeletePracticeNote(ctx, id)
}
