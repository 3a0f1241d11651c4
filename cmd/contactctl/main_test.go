package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aanand-mishra/contact-manager/internal/clientconfig"
	"github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/rowstore"
	"github.com/aanand-mishra/contact-manager/internal/types"
)

const (
	validCSV = "Name,Email,Phone,Dob,Age\n" +
		"Alice,alice@x.com,+12 3456789012,1990-01-01,30\n" +
		"Bob,bob@x.com,+44 1234567890,1985-06-15,39\n"
	mixedCSV = "Name,Email,Phone,Dob,Age\n" +
		"Alice,alice@x.com,+12 3456789012,1990-01-01,30\n" +
		"Bob,bob@x,+44 1234567890,1985-06-15,39\n"
)

func testApp(baseURL string) *app {
	cfg := clientconfig.Default()
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	return &app{
		cfg:        cfg,
		log:        zap.NewNop(),
		isTerminal: func() bool { return false },
	}
}

func run(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCheck_InvalidRowsFirstAndExitError(t *testing.T) {
	out, _, err := run(t, testApp(""), "check", writeCSV(t, mixedCSV))

	require.ErrorIs(t, err, errInvalidRows)
	assert.Contains(t, out, rowstore.NoticeBlocked)
	bob, alice := strings.Index(out, "Bob"), strings.Index(out, "Alice")
	require.True(t, bob >= 0 && alice >= 0)
	assert.Less(t, bob, alice, "invalid rows are listed first")
	assert.Contains(t, out, "✖")
}

func TestCheck_AllValid(t *testing.T) {
	out, _, err := run(t, testApp(""), "check", writeCSV(t, validCSV))

	require.NoError(t, err)
	assert.Contains(t, out, rowstore.NoticeAllValid)
}

func TestCheck_MalformedLines(t *testing.T) {
	_, _, err := run(t, testApp(""), "check", writeCSV(t, validCSV+"Carol,carol@x.com\n"))

	var perr *csvimport.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []int{4}, perr.Lines)
}

func TestCheck_AliasedHeaderIsReported(t *testing.T) {
	body := strings.Replace(validCSV, "Dob", "Date of Birth", 1)
	_, stderr, err := run(t, testApp(""), "check", writeCSV(t, body))

	require.NoError(t, err)
	assert.Contains(t, stderr, `"Date of Birth" read as "Dob"`)
}

func TestExport_CanonicalHeaderInvalidFirst(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "clean.csv")

	_, _, err := run(t, testApp(""), "export", writeCSV(t, mixedCSV), "-o", dst)
	require.NoError(t, err)

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone,Dob,Age", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Bob,"))
	assert.True(t, strings.HasPrefix(lines[2], "Alice,"))
}

func TestExport_Stdout(t *testing.T) {
	out, _, err := run(t, testApp(""), "export", writeCSV(t, validCSV))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Name,Email,Phone,Dob,Age\n"))
}

func TestSubmit_SendsOneBatch(t *testing.T) {
	var requests atomic.Int32
	var got atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var body struct {
			Contacts []types.ContactInput `json:"contacts"`
		}
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			got.Store(int32(len(body.Contacts)))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Contacts saved successfully!"}`))
	}))
	defer server.Close()

	out, _, err := run(t, testApp(server.URL), "submit", writeCSV(t, validCSV))

	require.NoError(t, err)
	assert.EqualValues(t, 1, requests.Load())
	assert.EqualValues(t, 2, got.Load())
	assert.Contains(t, out, "Contacts saved successfully! (2 contacts)")
}

func TestSubmit_BlockedByInvalidRows(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	_, stderr, err := run(t, testApp(server.URL), "submit", writeCSV(t, mixedCSV))

	require.ErrorIs(t, err, contact.ErrValidationBlocked)
	assert.Zero(t, requests.Load())
	assert.Contains(t, stderr, rowstore.NoticeBlocked)
}

func TestSubmit_ServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Failed to save contacts","error":"disk full"}`))
	}))
	defer server.Close()

	_, stderr, err := run(t, testApp(server.URL), "submit", writeCSV(t, validCSV))

	require.ErrorIs(t, err, contact.ErrPersistenceFailure)
	assert.Contains(t, stderr, rowstore.NoticeSubmitFailed)
}

func TestList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact/all", r.URL.Path)
		w.Write([]byte(`{"contacts":[{"id":7,"name":"Alice","email":"alice@x.com","phone":"+12 3456789012","dob":"1990-01-01","age":30}]}`))
	}))
	defer server.Close()

	out, _, err := run(t, testApp(""), "--base-url", server.URL, "list")

	require.NoError(t, err)
	for _, want := range []string{"7", "Alice", "alice@x.com", "1990-01-01", "30"} {
		assert.Contains(t, out, want)
	}
}

func TestList_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contacts":[]}`))
	}))
	defer server.Close()

	out, _, err := run(t, testApp(server.URL), "list")
	require.NoError(t, err)
	assert.Equal(t, "no contacts\n", out)
}

func remoteServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var deleted atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/contact/add", func(w http.ResponseWriter, r *http.Request) {
		var in types.ContactInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Alice", in.Name)
		assert.Equal(t, 30, *in.Age)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Contact added successfully","contact":{"id":7,"name":"Alice","email":"alice@x.com","phone":"+12 3456789012","age":30}}`))
	})
	mux.HandleFunc("PUT /api/contact/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Contact not found"}`))
			return
		}
		w.Write([]byte(`{"message":"Contact updated successfully","contact":{"id":7,"name":"Alicia","email":"alice@x.com","phone":"+12 3456789012"}}`))
	})
	mux.HandleFunc("DELETE /api/contact/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Contact not found"}`))
			return
		}
		deleted.Add(1)
		w.Write([]byte(`{"message":"Contact deleted successfully"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &deleted
}

func TestAdd(t *testing.T) {
	server, _ := remoteServer(t)

	out, _, err := run(t, testApp(server.URL), "add",
		"--name", "Alice", "--email", "alice@x.com", "--phone", "+12 3456789012", "--age", "30 years")

	require.NoError(t, err)
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "Alice")
}

func TestAdd_InvalidFieldsMakeNoRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	_, _, err := run(t, testApp(server.URL), "add",
		"--name", "Alice", "--email", "alice@x", "--phone", "12345")

	require.ErrorIs(t, err, contact.ErrValidationBlocked)
	assert.ErrorContains(t, err, "email")
	assert.ErrorContains(t, err, "phone")
	assert.Zero(t, requests.Load())
}

func TestUpdate(t *testing.T) {
	server, _ := remoteServer(t)
	args := []string{"--name", "Alicia", "--email", "alice@x.com", "--phone", "+12 3456789012"}

	out, _, err := run(t, testApp(server.URL), append([]string{"update", "7"}, args...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Alicia")

	_, _, err = run(t, testApp(server.URL), append([]string{"update", "9"}, args...)...)
	require.ErrorIs(t, err, contact.ErrNotFound)
	assert.ErrorContains(t, err, "contact 9")

	_, _, err = run(t, testApp(server.URL), append([]string{"update", "abc"}, args...)...)
	assert.ErrorContains(t, err, `invalid contact id "abc"`)
}

func TestDelete(t *testing.T) {
	server, deleted := remoteServer(t)

	out, _, err := run(t, testApp(server.URL), "delete", "7")
	require.NoError(t, err)
	assert.Equal(t, "deleted contact 7\n", out)
	assert.EqualValues(t, 1, deleted.Load())

	_, _, err = run(t, testApp(server.URL), "delete", "9")
	require.ErrorIs(t, err, contact.ErrNotFound)
	assert.EqualValues(t, 1, deleted.Load())
}

func TestOpen_PlainOutputWithoutTerminal(t *testing.T) {
	out, _, err := run(t, testApp(""), "open", writeCSV(t, mixedCSV))

	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Date of Birth")
}

func TestOpen_WatchNeedsFile(t *testing.T) {
	_, _, err := run(t, testApp(""), "open", "--watch")
	assert.ErrorContains(t, err, "--watch needs a file")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(clientconfig.LogConfig{Level: "loud"}, false, false)
	assert.Error(t, err)

	log, err := newLogger(clientconfig.LogConfig{Level: "warn"}, true, false)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel), "verbose wins over the configured level")

	path := filepath.Join(t.TempDir(), "contactctl.log")
	log, err = newLogger(clientconfig.LogConfig{File: path, Level: "info"}, false, true)
	require.NoError(t, err)
	log.Info("grid started")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "grid started")
}
