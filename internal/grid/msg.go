package grid

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/submit"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

// ImportedMsg carries the outcome of reading a CSV file. Result may hold
// rows even when Err is a *csvimport.ParseError.
type ImportedMsg struct {
	File   string
	Result csvimport.Result
	Err    error
}

// SubmittedMsg carries the outcome of the batched create request.
type SubmittedMsg struct {
	Ack submit.Ack
	Err error
}

// FileChangedMsg signals that the watched CSV file was written.
type FileChangedMsg struct{}

func importCmd(ctx context.Context, im *csvimport.Importer, path string) tea.Cmd {
	return func() tea.Msg {
		res, err := im.ImportFile(ctx, path)
		return ImportedMsg{File: path, Result: res, Err: err}
	}
}

func submitCmd(ctx context.Context, gate *submit.Gate, inputs []types.ContactInput) tea.Cmd {
	return func() tea.Msg {
		ack, err := gate.Send(ctx, inputs)
		return SubmittedMsg{Ack: ack, Err: err}
	}
}

// waitForChange blocks until the next change on ch. A closed channel ends
// the watch.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}
