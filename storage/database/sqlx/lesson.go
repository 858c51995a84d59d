package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/lesson"
)

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

type lessonPlanRow struct {
	ID             string      `db:"id"`
	OwnerID        string      `db:"owner_id"`
	Title          string      `db:"title"`
	Subject        string      `db:"subject"`
	Grade          string      `db:"grade"`
	Content        string      `db:"content"`
	UseForTraining bool        `db:"use_for_training"`
	DriveFileID    null.String `db:"drive_file_id"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type practiceNoteRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	LessonID   null.String `db:"lesson_id"`
	Title      string      `db:"title"`
	Reflection string      `db:"reflection"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (repo lessonRepository) planRow(plan lesson.LessonPlan) lessonPlanRow {
	return lessonPlanRow{
		ID:             plan.ID,
		OwnerID:        plan.OwnerID,
		Title:          plan.Title,
		Subject:        plan.Subject,
		Grade:          plan.Grade,
		Content:        plan.Content,
		UseForTraining: plan.UseForTraining,
		DriveFileID:    null.NewString(plan.DriveFileID, plan.DriveFileID != ""),
		CreatedAt:      plan.CreatedAt.UTC(),
		UpdatedAt:      plan.UpdatedAt.UTC(),
	}
}

func (repo lessonRepository) unrowPlan(r lessonPlanRow) lesson.LessonPlan {
	return lesson.LessonPlan{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Title:          r.Title,
		Subject:        r.Subject,
		Grade:          r.Grade,
		Content:        r.Content,
		UseForTraining: r.UseForTraining,
		DriveFileID:    r.DriveFileID.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (repo lessonRepository) noteRow(note lesson.PracticeNote) practiceNoteRow {
	return practiceNoteRow{
		ID:         note.ID,
		OwnerID:    note.OwnerID,
		LessonID:   null.NewString(note.LessonID, note.LessonID != ""),
		Title:      note.Title,
		Reflection: note.Reflection,
		CreatedAt:  note.CreatedAt.UTC(),
		UpdatedAt:  note.UpdatedAt.UTC(),
	}
}

func (repo lessonRepository) unrowNote(r practiceNoteRow) lesson.PracticeNote {
	return lesson.PracticeNote{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		LessonID:   r.LessonID.String,
		Title:      r.Title,
		Reflection: r.Reflection,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to lesson.ErrNotFound
func (repo lessonRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return lesson.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	ords := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		ords = append(ords, ord.String())
	}
	return " ORDER BY " + strings.Join(ords, ", ")
}

func (repo lessonRepository) CreateLessonPlan(ctx context.Context, plan lesson.LessonPlan) (lesson.LessonPlan, error) {
	const q = `
		INSERT INTO lesson_plan (id, owner_id, title, subject, grade, content, use_for_training, drive_file_id, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :subject, :grade, :content, :use_for_training, :drive_file_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.planRow(plan)); err != nil {
		return lesson.LessonPlan{}, errors.Wrap(err, "inserting lesson plan")
	}
	return plan, nil
}

func (repo lessonRepository) GetLessonPlanByID(ctx context.Context, id string) (lesson.LessonPlan, error) {
	var r lessonPlanRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM lesson_plan WHERE id = $1`, id); err != nil {
		return lesson.LessonPlan{}, repo.trapNoRowsErr(err, "getting lesson plan")
	}
	return repo.unrowPlan(r), nil
}

func (repo lessonRepository) QueryAllLessonPlans(ctx context.Context) ([]lesson.LessonPlan, error) {
	var rows []lessonPlanRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lesson_plan ORDER BY created_at ASC`); err != nil {
		return nil, errors.Wrap(err, "querying all lesson plans")
	}
	plans := make([]lesson.LessonPlan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, repo.unrowPlan(r))
	}
	return plans, nil
}

func (repo lessonRepository) QueryLessonPlansByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]lesson.LessonPlan, error) {
	q := `SELECT * FROM lesson_plan WHERE owner_id = $1` + orderBy(ordering)
	var rows []lessonPlanRow
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying lesson plans")
	}
	plans := make([]lesson.LessonPlan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, repo.unrowPlan(r))
	}
	return plans, nil
}

func (repo lessonRepository) QueryTrainingLessonPlans(ctx context.Context) ([]lesson.LessonPlan, error) {
	var rows []lessonPlanRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lesson_plan WHERE use_for_training ORDER BY created_at ASC`); err != nil {
		return nil, errors.Wrap(err, "querying training lesson plans")
	}
	plans := make([]lesson.LessonPlan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, repo.unrowPlan(r))
	}
	return plans, nil
}

func (repo lessonRepository) UpdateLessonPlan(ctx context.Context, plan lesson.LessonPlan) (lesson.LessonPlan, error) {
	const q = `
		UPDATE lesson_plan
		SET title = :title, subject = :subject, grade = :grade, content = :content,
		    use_for_training = :use_for_training, drive_file_id = :drive_file_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.planRow(plan))
	if err != nil {
		return lesson.LessonPlan{}, errors.Wrap(err, "updating lesson plan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lesson.LessonPlan{}, lesson.ErrNotFound
	}
	return plan, nil
}

func (repo lessonRepository) DeleteLessonPlan(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM lesson_plan WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting lesson plan")
	}
	return nil
}

func (repo lessonRepository) CreatePracticeNote(ctx context.Context, note lesson.PracticeNote) (lesson.PracticeNote, error) {
	const q = `
		INSERT INTO practice_note (id, owner_id, lesson_id, title, reflection, created_at, updated_at)
		VALUES (:id, :owner_id, :lesson_id, :title, :reflection, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.noteRow(note)); err != nil {
		return lesson.PracticeNote{}, errors.Wrap(err, "inserting practice note")
	}
	return note, nil
}

func (repo lessonRepository) GetPracticeNoteByID(ctx context.Context, id string) (lesson.PracticeNote, error) {
	var r practiceNoteRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM practice_note WHERE id = $1`, id); err != nil {
		return lesson.PracticeNote{}, repo.trapNoRowsErr(err, "getting practice note")
	}
	return repo.unrowNote(r), nil
}

func (repo lessonRepository) QueryAllPracticeNotes(ctx context.Context) ([]lesson.PracticeNote, error) {
	var rows []practiceNoteRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM practice_note ORDER BY created_at ASC`); err != nil {
		return nil, errors.Wrap(err, "querying all practice notes")
	}
	notes := make([]lesson.PracticeNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, repo.unrowNote(r))
	}
	return notes, nil
}

func (repo lessonRepository) QueryPracticeNotesByOwner(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]lesson.PracticeNote, error) {
	q := `SELECT * FROM practice_note WHERE owner_id = $1` + orderBy(ordering)
	var rows []practiceNoteRow
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying practice notes")
	}
	notes := make([]lesson.PracticeNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, repo.unrowNote(r))
	}
	return notes, nil
}

func (repo lessonRepository) DeletePracticeNote(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM practice_note WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting practice note")
	}
	return nil
}
