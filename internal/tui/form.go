package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/athro-ai/athro/internal/editor"
	"github.com/athro-ai/athro/internal/study"
)

type formField int

const (
	fieldTitle formField = iota
	fieldSubject
	fieldTopic
	fieldStart
	fieldDuration
	fieldType
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Subject", "Topic", "Start", "Duration", "Type"}

var eventTypes = []study.EventType{study.TypeStudySession, study.TypeQuiz, study.TypeRevision}

// formModel edits one editor.Form. Subject, duration and type are picked
// from fixed options; the rest are free text.
type formModel struct {
	base editor.Form

	title   textinput.Model
	topic   textinput.Model
	start   textinput.Model
	subject textinput.Model // used only when no subjects are configured

	subjects  []string
	subjIdx   int
	durations []int
	durIdx    int
	typeIdx   int

	focus formField
	err   error
}

func newFormModel(f editor.Form, subjects []string, styles *Styles) *formModel {
	fm := &formModel{
		base:      f,
		title:     newInput("Algebra drill", 80, styles),
		topic:     newInput("optional", 80, styles),
		start:     newInput("HH:MM", 5, styles),
		subject:   newInput("Subject", 40, styles),
		subjects:  subjects,
		durations: study.DurationOptions,
	}
	fm.title.SetValue(f.Title)
	fm.topic.SetValue(f.Topic)
	fm.start.SetValue(f.StartTime)
	fm.subject.SetValue(f.Subject)

	if i := slices.Index(subjects, f.Subject); i >= 0 {
		fm.subjIdx = i
	}
	fm.durIdx = slices.Index(fm.durations, f.DurationMinutes)
	if fm.durIdx < 0 {
		// Keep an unusual stored duration selectable.
		fm.durations = append(slices.Clone(fm.durations), f.DurationMinutes)
		slices.Sort(fm.durations)
		fm.durIdx = slices.Index(fm.durations, f.DurationMinutes)
	}
	if i := slices.Index(eventTypes, f.Type); i >= 0 {
		fm.typeIdx = i
	}
	fm.setFocus(fieldTitle)
	return fm
}

func newInput(placeholder string, limit int, styles *Styles) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 36
	ti.Prompt = ""
	ti.TextStyle = styles.InputTextStyle
	ti.PlaceholderStyle = styles.MutedStyle
	ti.Cursor.Style = styles.InputCursorStyle
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// Form returns the editor form with the current field values.
func (fm *formModel) Form() editor.Form {
	f := fm.base
	f.Title = strings.TrimSpace(fm.title.Value())
	f.Topic = strings.TrimSpace(fm.topic.Value())
	f.SetStart(fm.start.Value())
	f.SetDuration(fm.durations[fm.durIdx])
	f.Type = eventTypes[fm.typeIdx]
	if len(fm.subjects) > 0 {
		f.Subject = fm.subjects[fm.subjIdx]
	} else {
		f.Subject = strings.TrimSpace(fm.subject.Value())
	}
	return f
}

func (fm *formModel) input(field formField) *textinput.Model {
	switch field {
	case fieldTitle:
		return &fm.title
	case fieldTopic:
		return &fm.topic
	case fieldStart:
		return &fm.start
	case fieldSubject:
		if len(fm.subjects) == 0 {
			return &fm.subject
		}
	}
	return nil
}

func (fm *formModel) setFocus(field formField) {
	if in := fm.input(fm.focus); in != nil {
		in.Blur()
	}
	fm.focus = (field + fieldCount) % fieldCount
	if in := fm.input(fm.focus); in != nil {
		in.Focus()
	}
}

// cycle steps the option of the focused pick field.
func (fm *formModel) cycle(delta int) bool {
	step := func(i, n int) int { return ((i+delta)%n + n) % n }
	switch fm.focus {
	case fieldSubject:
		if len(fm.subjects) == 0 {
			return false
		}
		fm.subjIdx = step(fm.subjIdx, len(fm.subjects))
	case fieldDuration:
		fm.durIdx = step(fm.durIdx, len(fm.durations))
	case fieldType:
		fm.typeIdx = step(fm.typeIdx, len(eventTypes))
	default:
		return false
	}
	return true
}

// Update handles a key while the form is focused. It never saves or
// closes the form; the caller handles enter and esc.
func (fm *formModel) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		fm.setFocus(fm.focus + 1)
		return nil
	case "shift+tab", "up":
		fm.setFocus(fm.focus - 1)
		return nil
	case "left":
		if fm.cycle(-1) {
			return nil
		}
	case "right", " ":
		if fm.cycle(1) {
			return nil
		}
	}
	if in := fm.input(fm.focus); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return cmd
	}
	return nil
}

// View renders the form box.
func (fm *formModel) View(s *Styles) string {
	var b strings.Builder
	heading := "New event"
	if fm.base.IsEdit() {
		heading = "Edit event"
	}
	b.WriteString(s.TitleStyle.Render(heading))
	b.WriteString("  " + s.MutedStyle.Render(fm.base.Date.Format("Mon Jan 2")))
	b.WriteString("\n\n")

	for field := range fieldCount {
		label := s.FormLabelStyle.Render(fieldLabels[field])
		if field == fm.focus {
			label = s.FormFocusStyle.Render(fieldLabels[field])
		}
		b.WriteString(label + fm.fieldValue(field, s) + "\n")
	}

	if end, ok := fm.Form().EndTime(); ok {
		b.WriteString(s.FormLabelStyle.Render("Ends") + s.MutedStyle.Render(end.Format("15:04")) + "\n")
	}
	if fm.err != nil {
		b.WriteString("\n" + s.FormErrorStyle.Render(formErrorText(fm.err)) + "\n")
	}
	b.WriteString("\n" + s.MutedStyle.Render("tab next · ←/→ change · enter save · esc cancel"))
	return s.FormStyle.Render(b.String())
}

func (fm *formModel) fieldValue(field formField, s *Styles) string {
	if in := fm.input(field); in != nil {
		return in.View()
	}
	var value string
	switch field {
	case fieldSubject:
		value = fm.subjects[fm.subjIdx]
	case fieldDuration:
		value = fmt.Sprintf("%d min", fm.durations[fm.durIdx])
	case fieldType:
		value = string(eventTypes[fm.typeIdx])
	}
	if field == fm.focus {
		return s.FormOptionStyle.Render("‹ " + value + " ›")
	}
	return lipgloss.NewStyle().PaddingLeft(2).Inherit(s.FormOptionStyle).Render(value)
}

func formErrorText(err error) string {
	var missing *study.MissingFieldError
	if errors.As(err, &missing) {
		return "Missing: " + strings.Join(missing.Fields, ", ")
	}
	var invalid *study.ValidationError
	if errors.As(err, &invalid) && invalid.Field != "" {
		return invalid.Field + ": " + invalid.Message
	}
	return err.Error()
}
