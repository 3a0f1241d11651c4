// Package grid is the interactive row grid of the contact client.
//
// The Model owns a rowstore.Store and is its only writer. Every key press
// becomes a rowstore action; the CSV import, the submit call and the watch
// reload run as tea.Cmds and report back as messages.
package grid

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/rowstore"
	"github.com/aanand-mishra/contact-manager/internal/submit"
)

const (
	msgBusy         = rowstore.NoticeBusy
	msgNoRow        = "No row selected."
	msgReadFailed   = "Could not read the file."
	msgReloadQueued = "File read; rows reload once the submission finishes."
)

// Options configures a Model. Store, Importer and Gate are required.
type Options struct {
	Ctx      context.Context
	Store    *rowstore.Store
	Importer *csvimport.Importer
	Gate     *submit.Gate
	Log      *zap.Logger

	// File is imported on Init when set.
	File string
	// Changes triggers a re-import of File on every value.
	Changes <-chan struct{}
}

// Model is the Bubble Tea model for the contact grid.
type Model struct {
	ctx      context.Context
	store    *rowstore.Store
	importer *csvimport.Importer
	gate     *submit.Gate
	log      *zap.Logger
	file     string
	changes  <-chan struct{}

	table table.Model
	ids   []string // row IDs in table order
	form  form
	help  help.Model

	keys        gridKeys
	formKeys    formKeys
	confirmKeys confirmKeys

	// deferred holds an import that arrived while a submission was in
	// flight. It is applied once the submission settles.
	deferred *ImportedMsg

	// status is a model-level message, shown under the store's notice.
	status    string
	statusErr bool
	quitting  bool
}

func New(opts Options) Model {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	m := Model{
		ctx:         opts.Ctx,
		store:       opts.Store,
		importer:    opts.Importer,
		gate:        opts.Gate,
		log:         opts.Log,
		file:        opts.File,
		changes:     opts.Changes,
		table:       t,
		form:        newForm(),
		help:        help.New(),
		keys:        gridKeyMap(),
		formKeys:    formKeyMap(),
		confirmKeys: confirmKeyMap(),
	}
	m.sync()
	return m
}

// Store returns the store driven by the model.
func (m Model) Store() *rowstore.Store {
	return m.store
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.file != "" {
		cmds = append(cmds, importCmd(m.ctx, m.importer, m.file))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-8, 3))
		m.help.Width = msg.Width
		return m, nil

	case ImportedMsg:
		return m.imported(msg), nil

	case SubmittedMsg:
		if msg.Err != nil {
			m.log.Error("submit failed", zap.Error(msg.Err))
			_ = m.store.Dispatch(rowstore.SubmitError{Err: msg.Err})
		} else {
			_ = m.store.Dispatch(rowstore.SubmitDone{})
		}
		m.sync()
		if m.deferred != nil {
			pending := *m.deferred
			m.deferred = nil
			m = m.imported(pending)
		}
		return m, nil

	case FileChangedMsg:
		next := waitForChange(m.changes)
		if m.file == "" {
			return m, next
		}
		m.log.Info("watched file changed", zap.String("file", m.file))
		return m, tea.Batch(importCmd(m.ctx, m.importer, m.file), next)

	case tea.KeyMsg:
		switch m.store.State().Modal {
		case rowstore.ModalAdd, rowstore.ModalEdit:
			return m.updateForm(msg)
		case rowstore.ModalConfirmReset:
			return m.updateConfirm(msg)
		}
		return m.updateGrid(msg)
	}

	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.statusErr = "", false
	submitting := m.store.State().Submitting

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Reset) && submitting:
		m.setStatus(msgBusy, true)
		return m, nil

	case key.Matches(msg, m.keys.Add):
		_ = m.store.Dispatch(rowstore.OpenAdd{})
		m.form = m.form.open(contact.Fields{})
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		id, ok := m.selected()
		if !ok {
			m.setStatus(msgNoRow, true)
			return m, nil
		}
		if err := m.store.Dispatch(rowstore.OpenEdit{ID: id}); err != nil {
			m.setStatus(msgNoRow, true)
			return m, nil
		}
		m.form = m.form.open(m.store.State().Pending.Fields())
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		id, ok := m.selected()
		if !ok {
			m.setStatus(msgNoRow, true)
			return m, nil
		}
		_ = m.store.Dispatch(rowstore.Delete{ID: id})
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		_ = m.store.Dispatch(rowstore.RequestReset{})
		return m, nil

	case key.Matches(msg, m.keys.Check):
		_ = m.store.Dispatch(rowstore.Validate{})
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		_ = m.store.Dispatch(rowstore.CloseModal{})
		return m, nil

	case key.Matches(msg, m.formKeys.Next):
		m.form = m.form.move(1)
		return m, nil

	case key.Matches(msg, m.formKeys.Prev):
		m.form = m.form.move(-1)
		return m, nil

	case key.Matches(msg, m.formKeys.Save):
		st := m.store.State()
		var err error
		if st.Modal == rowstore.ModalEdit {
			err = m.store.Dispatch(rowstore.Edit{ID: st.Pending.ID, Values: m.form.values()})
		} else {
			err = m.store.Dispatch(rowstore.Add{Candidate: m.form.values()})
		}
		if err != nil && !errors.Is(err, contact.ErrMissingRequiredField) {
			m.log.Warn("save row", zap.Error(err))
			_ = m.store.Dispatch(rowstore.CloseModal{})
		}
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.confirmKeys.Yes):
		_ = m.store.Dispatch(rowstore.Reset{})
		m.sync()
	case key.Matches(msg, m.confirmKeys.No):
		_ = m.store.Dispatch(rowstore.CloseModal{})
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if err := m.store.Dispatch(rowstore.SubmitStart{}); err != nil {
		m.sync()
		if !errors.Is(err, contact.ErrValidationBlocked) {
			m.setStatus(msgBusy, true)
		}
		return m, nil
	}

	inputs, err := submit.Prepare(m.store.Rows())
	if err != nil {
		_ = m.store.Dispatch(rowstore.SubmitError{Err: err})
		return m, nil
	}
	return m, submitCmd(m.ctx, m.gate, inputs)
}

func (m Model) imported(msg ImportedMsg) Model {
	var perr *csvimport.ParseError
	switch {
	case msg.Err == nil:
	case errors.As(msg.Err, &perr):
		m.log.Warn("csv import skipped lines", zap.String("file", msg.File), zap.Ints("lines", perr.Lines))
	default:
		m.log.Error("csv import failed", zap.String("file", msg.File), zap.Error(msg.Err))
		m.setStatus(msgReadFailed, true)
		return m
	}

	if err := m.store.Dispatch(rowstore.Load{Records: msg.Result.Records, File: msg.File}); err != nil {
		if errors.Is(err, rowstore.ErrSubmitting) {
			m.log.Info("csv import deferred until submit settles", zap.String("file", msg.File))
			m.deferred = &msg
			m.setStatus(msgReloadQueued, false)
		}
		return m
	}
	m.sync()

	if perr != nil {
		m.setStatus(fmt.Sprintf("Loaded %d rows. %s.", len(msg.Result.Records), perr.Error()), true)
		return m
	}
	m.setStatus(fmt.Sprintf("Loaded %d rows from %s.", len(msg.Result.Records), filepath.Base(msg.File)), false)
	return m
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

// sync rebuilds the table from the store.
func (m *Model) sync() {
	recs := m.store.Rows()
	rows := make([]table.Row, len(recs))
	m.ids = make([]string, len(recs))
	for i, r := range recs {
		badge := invalidBadge
		if r.Valid() {
			badge = validBadge
		}
		rows[i] = table.Row{r.Name, r.Email, r.Phone, r.DateOfBirth, r.Age, badge}
		m.ids[i] = r.ID
	}
	m.table.SetRows(rows)
	if n := len(rows); n > 0 && m.table.Cursor() >= n {
		m.table.SetCursor(n - 1)
	}
}

func (m Model) selected() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.ids) {
		return "", false
	}
	return m.ids[i], true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.store.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Contacts"))
	if st.File != "" {
		b.WriteString(" " + fileStyle.Render(st.File))
	}
	fmt.Fprintf(&b, " %s\n\n", fileStyle.Render(fmt.Sprintf("(%d rows)", len(st.Rows))))

	var keys help.KeyMap = m.keys
	switch st.Modal {
	case rowstore.ModalAdd:
		b.WriteString(modalStyle.Render(m.form.view("Add contact")))
		keys = m.formKeys
	case rowstore.ModalEdit:
		b.WriteString(modalStyle.Render(m.form.view("Edit contact")))
		keys = m.formKeys
	case rowstore.ModalConfirmReset:
		b.WriteString(modalStyle.Render(fmt.Sprintf("Discard all %d rows?\n\n  [y] Confirm   [n] Cancel", len(st.Rows))))
		keys = m.confirmKeys
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if st.Submitting {
		b.WriteString(fileStyle.Render("Submitting...") + "\n")
	}
	if st.Notice != "" {
		b.WriteString(noticeView(st.Notice, st.Notice != rowstore.NoticeSubmitted && st.Notice != rowstore.NoticeAllValid) + "\n")
	}
	if m.status != "" {
		b.WriteString(noticeView(m.status, m.statusErr) + "\n")
	}

	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func noticeView(s string, isErr bool) string {
	if isErr {
		return noticeErr.Render(s)
	}
	return noticeOK.Render(s)
}

// columns splits width across the six grid columns.
func columns(width int) []table.Column {
	const badge = 3
	w := max(width-badge-14, 50) // cell padding
	return []table.Column{
		{Title: "Name", Width: w * 20 / 100},
		{Title: "Email", Width: w * 28 / 100},
		{Title: "Phone", Width: w * 20 / 100},
		{Title: "Date of Birth", Width: w * 16 / 100},
		{Title: "Age", Width: w * 16 / 100},
		{Title: "✔/✖", Width: badge},
	}
}
