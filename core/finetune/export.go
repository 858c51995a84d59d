// Package finetune turns stored lessons into chat-format training data.
package finetune

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/lesson"
)

// Target selects which corpus an export draws from.
type Target string

const (
	TargetLesson   Target = "lesson"
	TargetPractice Target = "practice"
)

var ErrInvalidTarget = errors.New("invalid export target")

func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetLesson, TargetPractice:
		return Target(s), nil
	case "":
		return TargetPractice, nil
	}
	return "", ErrInvalidTarget
}

const systemPrompt = "You are an assistant for lesson planning and teaching practice reflection."

type (
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	metadata struct {
		DocID string `json:"doc_id"`
		OptIn bool   `json:"opt_in"`
	}

	record struct {
		Messages []message `json:"messages"`
		Metadata metadata  `json:"metadata"`
	}
)

// WriteLessons streams opted-in lesson plans as JSONL, one chat record per
// plan.
func WriteLessons(w io.Writer, plans []lesson.LessonPlan) error {
	enc := json.NewEncoder(w)
	for _, plan := range plans {
		rec := record{
			Messages: []message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: plan.Content},
			},
			Metadata: metadata{DocID: plan.ID, OptIn: plan.UseForTraining},
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "encoding lesson record")
		}
	}
	return nil
}

// WritePractices streams practice notes as JSONL. Each note is flattened to a
// labelled prompt so the tuning set keeps the note's structure.
func WritePractices(w io.Writer, notes []lesson.PracticeNote, plansByID map[string]lesson.LessonPlan) error {
	enc := json.NewEncoder(w)
	for _, note := range notes {
		var subject, grade string
		if plan, ok := plansByID[note.LessonID]; ok {
			subject = plan.Subject
			grade = plan.Grade
		}
		content := fmt.Sprintf("Unit: %s\nGrade: %s\nSubject: %s\nReflection: %s", note.Title, grade, subject, note.Reflection)
		rec := record{
			Messages: []message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: content},
			},
			Metadata: metadata{DocID: note.ID, OptIn: true},
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "encoding practice record")
		}
	}
	return nil
}

// Filename names the downloaded export the way curators expect,
// e.g. train_practice_all_optin.jsonl.
func Filename(target Target, scope string, optInOnly bool) string {
	name := fmt.Sprintf("train_%s_%s", target, scope)
	if optInOnly {
		name += "_optin"
	}
	return name + ".jsonl"
}
