package grid

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/apiclient"
	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/rowstore"
	"github.com/aanand-mishra/contact-manager/internal/submit"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

const sampleCSV = "Name,Email,Phone,Dob,Age\n" +
	"Alice,alice@x.com,+12 3456789012,1990-01-01,30\n" +
	"Bob,bob@x,+44 1234567890,1985-06-15,39\n"

// fakeCreator records batches; it is shared with the program goroutine in
// teatest runs.
type fakeCreator struct {
	mu      sync.Mutex
	batches [][]types.ContactInput
	err     error
}

func (f *fakeCreator) CreateBatch(_ context.Context, in []types.ContactInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, in)
	if f.err != nil {
		return "", f.err
	}
	return "Contacts saved successfully!", nil
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func newTestModel(t *testing.T, creator submit.Creator, file string) Model {
	t.Helper()
	log := zap.NewNop()
	return New(Options{
		Store:    rowstore.New(log),
		Importer: csvimport.New(log),
		Gate:     submit.New(creator, log),
		Log:      log,
		File:     file,
	})
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs through Update, running any returned command
// synchronously and feeding its message back, except for tea.Quit.
func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			continue
		}
		switch out := cmd().(type) {
		case ImportedMsg, SubmittedMsg:
			m = send(t, m, out)
		}
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(keyRunes(string(r)))
		m = next.(Model)
	}
	return m
}

func loadRows(t *testing.T, m Model, fields ...contact.Fields) Model {
	t.Helper()
	recs := make([]contact.Record, len(fields))
	for i, f := range fields {
		recs[i] = contact.New(f)
	}
	return send(t, m, ImportedMsg{File: "test.csv", Result: csvimport.Result{Records: recs}})
}

var (
	alice = contact.Fields{Name: "Alice", Email: "alice@x.com", Phone: "+12 3456789012", DateOfBirth: "1990-01-01", Age: "30"}
	bob   = contact.Fields{Name: "Bob", Email: "bob@x.com", Phone: "+44 1234567890", DateOfBirth: "1985-06-15", Age: "39"}
	eve   = contact.Fields{Name: "Eve", Email: "eve@x", Phone: "+44 1234567890"}
)

func TestModel_Init_ImportsFile(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, writeCSV(t, sampleCSV))

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ImportedMsg)
	require.True(t, ok, "Init should return the import command")

	m = send(t, m, msg)
	rows := m.Store().Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].Name, "invalid rows come first")
	assert.False(t, rows[0].Valid())
	assert.True(t, rows[1].Valid())
	assert.Equal(t, []string{rows[0].ID, rows[1].ID}, m.ids)
	assert.Contains(t, m.status, "Loaded 2 rows")
	assert.False(t, m.statusErr)
}

func TestModel_Init_NoFile(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")
	assert.Nil(t, m.Init())
}

func TestModel_Import_Failures(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, filepath.Join(t.TempDir(), "missing.csv"))
	m = send(t, m, m.Init()())
	assert.Equal(t, msgReadFailed, m.status)
	assert.True(t, m.statusErr)
	assert.Zero(t, m.Store().Len())

	path := writeCSV(t, sampleCSV+"Carol,carol@x.com\n")
	m = newTestModel(t, &fakeCreator{}, path)
	m = send(t, m, m.Init()())
	assert.Equal(t, 2, m.Store().Len(), "good rows survive a malformed line")
	assert.Contains(t, m.status, "malformed")
	assert.True(t, m.statusErr)
}

func TestModel_AddRow(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")

	m = send(t, m, keyRunes("a"))
	require.Equal(t, rowstore.ModalAdd, m.Store().State().Modal)

	m = typeText(m, "Alice")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "alice@x.com")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "+12 3456789012")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	st := m.Store().State()
	assert.Equal(t, rowstore.ModalNone, st.Modal)
	require.Len(t, st.Rows, 1)
	assert.Equal(t, "Alice", st.Rows[0].Name)
	assert.Equal(t, "+12 3456789012", st.Rows[0].Phone)
	assert.True(t, st.Rows[0].Valid())
	assert.Len(t, m.table.Rows(), 1)
}

func TestModel_AddRow_MissingFieldsKeepsForm(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")

	m = send(t, m, keyRunes("a"))
	m = typeText(m, "Alice")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	st := m.Store().State()
	assert.Equal(t, rowstore.ModalAdd, st.Modal)
	assert.Equal(t, rowstore.NoticeMissingFields, st.Notice)
	assert.Empty(t, st.Rows)
	assert.Contains(t, m.View(), rowstore.NoticeMissingFields)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, rowstore.ModalNone, m.Store().State().Modal)
}

func TestModel_TypingQInFormDoesNotQuit(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")
	m = send(t, m, keyRunes("a"))

	next, cmd := m.Update(keyRunes("q"))
	m = next.(Model)

	assert.False(t, m.quitting)
	if cmd != nil {
		_, isQuit := cmd().(tea.QuitMsg)
		assert.False(t, isQuit)
	}
	assert.Equal(t, "q", m.form.inputs[fieldName].Value())
}

func TestModel_EditSelectedRow(t *testing.T) {
	m := loadRows(t, newTestModel(t, &fakeCreator{}, ""), eve, alice)
	require.Equal(t, "Eve", m.Store().Rows()[0].Name)

	m = send(t, m, keyRunes("e"))
	require.Equal(t, rowstore.ModalEdit, m.Store().State().Modal)
	assert.Equal(t, "eve@x", m.form.inputs[fieldEmail].Value())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, ".com")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	rows := m.Store().Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, rowstore.ModalNone, m.Store().State().Modal)
	for _, r := range rows {
		assert.True(t, r.Valid(), "row %s", r.Name)
	}
	assert.Equal(t, "Eve", rows[0].Name, "relative order of valid rows is kept")
	assert.Equal(t, "eve@x.com", rows[0].Email)
}

func TestModel_DeleteSelectedRow(t *testing.T) {
	m := loadRows(t, newTestModel(t, &fakeCreator{}, ""), alice, bob)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, keyRunes("d"))

	rows := m.Store().Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)
	assert.Equal(t, 0, m.table.Cursor(), "cursor clamps to the last row")

	m = send(t, m, keyRunes("d"), keyRunes("d"))
	assert.Zero(t, m.Store().Len())
	assert.Equal(t, msgNoRow, m.status)
}

func TestModel_Reset(t *testing.T) {
	tests := []struct {
		name    string
		confirm tea.KeyMsg
		want    int
	}{
		{"y confirms", keyRunes("y"), 0},
		{"enter confirms", tea.KeyMsg{Type: tea.KeyEnter}, 0},
		{"n cancels", keyRunes("n"), 2},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadRows(t, newTestModel(t, &fakeCreator{}, ""), alice, bob)

			m = send(t, m, keyRunes("r"))
			require.Equal(t, rowstore.ModalConfirmReset, m.Store().State().Modal)
			assert.Contains(t, m.View(), "Discard all 2 rows?")

			m = send(t, m, tt.confirm)
			assert.Equal(t, rowstore.ModalNone, m.Store().State().Modal)
			assert.Equal(t, tt.want, m.Store().Len())
			assert.Len(t, m.table.Rows(), tt.want)
		})
	}
}

func TestModel_Check(t *testing.T) {
	m := loadRows(t, newTestModel(t, &fakeCreator{}, ""), alice, eve)
	m = send(t, m, keyRunes("v"))
	assert.Equal(t, rowstore.NoticeBlocked, m.Store().State().Notice)

	m = loadRows(t, newTestModel(t, &fakeCreator{}, ""), alice, bob)
	m = send(t, m, keyRunes("v"))
	assert.Equal(t, rowstore.NoticeAllValid, m.Store().State().Notice)
}

func TestModel_Submit_BlockedWhileInvalid(t *testing.T) {
	creator := &fakeCreator{}
	m := loadRows(t, newTestModel(t, creator, ""), alice, eve)

	next, cmd := m.Update(keyRunes("s"))
	m = next.(Model)

	assert.Nil(t, cmd, "no request is scheduled")
	assert.Zero(t, creator.calls())
	assert.Equal(t, rowstore.NoticeBlocked, m.Store().State().Notice)
	assert.Equal(t, 2, m.Store().Len())
}

func TestModel_Submit_Success(t *testing.T) {
	creator := &fakeCreator{}
	m := loadRows(t, newTestModel(t, creator, ""), alice, bob)

	next, cmd := m.Update(keyRunes("s"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Store().State().Submitting)
	assert.Contains(t, m.View(), "Submitting...")

	m = send(t, m, keyRunes("d"))
	assert.Equal(t, msgBusy, m.status, "rows are frozen while submitting")
	assert.Equal(t, 2, m.Store().Len())

	m = send(t, m, cmd())

	assert.Equal(t, 1, creator.calls())
	assert.Len(t, creator.batches[0], 2)
	st := m.Store().State()
	assert.False(t, st.Submitting)
	assert.Empty(t, st.Rows)
	assert.Equal(t, rowstore.NoticeSubmitted, st.Notice)
	assert.Empty(t, m.table.Rows())
}

func TestModel_Submit_FailureKeepsRows(t *testing.T) {
	creator := &fakeCreator{err: &apiclient.StatusError{StatusCode: 500, Message: "Failed to save contacts"}}
	m := loadRows(t, newTestModel(t, creator, ""), alice, bob)
	before := m.Store().Rows()

	m = send(t, m, keyRunes("s"))

	st := m.Store().State()
	assert.Equal(t, before, st.Rows)
	assert.False(t, st.Submitting)
	assert.Equal(t, rowstore.NoticeSubmitFailed, st.Notice)
	assert.ErrorIs(t, st.Err, contact.ErrPersistenceFailure)
	assert.Contains(t, m.View(), rowstore.NoticeSubmitFailed)
	assert.NotContains(t, m.View(), "Failed to save contacts", "server details stay in the log")
}

func TestModel_ImportDuringSubmitIsAppliedAfterAck(t *testing.T) {
	tests := []struct {
		name   string
		before []contact.Fields
	}{
		{"empty grid", nil},
		{"loaded grid", []contact.Fields{alice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{}
			m := newTestModel(t, creator, "")
			if len(tt.before) > 0 {
				m = loadRows(t, m, tt.before...)
			}

			next, cmd := m.Update(keyRunes("s"))
			m = next.(Model)
			require.NotNil(t, cmd)
			require.True(t, m.Store().State().Submitting)

			imported := ImportedMsg{File: "late.csv", Result: csvimport.Result{
				Records: []contact.Record{contact.New(alice), contact.New(bob)},
			}}
			m = send(t, m, imported)
			assert.Equal(t, len(tt.before), m.Store().Len(), "rows stay frozen until the ack")
			assert.Equal(t, msgReloadQueued, m.status)

			m = send(t, m, cmd())

			require.Equal(t, 1, creator.calls())
			assert.Len(t, creator.batches[0], len(tt.before), "only the rows present at submit are sent")
			st := m.Store().State()
			assert.False(t, st.Submitting)
			assert.Equal(t, "late.csv", st.File)
			require.Len(t, st.Rows, 2, "the deferred import survives the ack")
			assert.Equal(t, "Alice", st.Rows[0].Name)
			assert.Equal(t, "Bob", st.Rows[1].Name)
			assert.Nil(t, m.deferred)
			assert.Len(t, m.table.Rows(), 2)
		})
	}
}

func TestModel_FileChangedReimports(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	changes := make(chan struct{}, 1)
	m := New(Options{
		Store:    rowstore.New(nil),
		Importer: csvimport.New(nil),
		Gate:     submit.New(&fakeCreator{}, nil),
		File:     path,
		Changes:  changes,
	})
	m = send(t, m, importCmd(context.Background(), m.importer, path)())
	require.Equal(t, 2, m.Store().Len())

	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"Carol,carol@x.com,+12 0000000000,,\n"), 0o600))

	next, cmd := m.Update(FileChangedMsg{})
	m = next.(Model)
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	changes <- struct{}{}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if imp, ok := c().(ImportedMsg); ok {
			m = send(t, m, imp)
		}
	}
	assert.Equal(t, 3, m.Store().Len())
}

func TestModel_QuitKey(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")
	next, cmd := m.Update(keyRunes("q"))

	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Empty(t, next.View())
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel(t, &fakeCreator{}, "")
	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	assert.Len(t, m.table.Columns(), 6)
	assert.Equal(t, 140, m.help.Width)
}

func TestModel_Teatest_ImportAndSubmit(t *testing.T) {
	body := "Name,Email,Phone,Dob,Age\n" +
		"Alice,alice@x.com,+12 3456789012,1990-01-01,30\n" +
		"Bob,bob@x.com,+44 1234567890,1985-06-15,39\n"
	creator := &fakeCreator{}
	m := newTestModel(t, creator, writeCSV(t, body))

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 30))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "Loaded 2 rows")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyRunes("s"))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), rowstore.NoticeSubmitted)
	}, teatest.WithDuration(2*time.Second))

	tm.Send(keyRunes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	assert.Zero(t, final.Store().Len())
	assert.Equal(t, 1, creator.calls())
}
