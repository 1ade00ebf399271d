package evaluator

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-dirac-console/internal/core/command"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecEvaluate(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name      string
		argv      []string
		code      string
		text      string
		exception bool
	}{
		{"stdout", []string{"cat"}, "1+1\n", "1+1", false},
		{"env", []string{"sh", "-c", "echo $DIRAC_SURFACE-$DIRAC_REQUEST_ID"}, "", "dirac-7", false},
		{"failure", []string{"sh", "-c", "echo bad >&2; exit 3"}, "", "bad", true},
		{"silent failure", []string{"sh", "-c", "exit 1"}, "", "exit status 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Exec{Argv: tt.argv}
			res, err := e.Evaluate(context.Background(), command.Request{ID: 7, Surface: "dirac", Code: tt.code})
			require.NoError(t, err)
			assert.Equal(t, 7, res.RequestID)
			assert.Equal(t, tt.text, res.Text)
			assert.Equal(t, tt.exception, res.Exception)
		})
	}
}

func TestExecTimeout(t *testing.T) {
	requireShell(t)
	e := &Exec{Argv: []string{"sh", "-c", "sleep 5"}, Timeout: 50 * time.Millisecond}
	_, err := e.Evaluate(context.Background(), command.Request{ID: 1})
	assert.ErrorContains(t, err, "timed out")
}

func TestNewExec(t *testing.T) {
	e, err := NewExec("node  -e  process.stdin")
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "-e", "process.stdin"}, e.Argv)

	_, err = NewExec("   ")
	assert.Error(t, err)

	_, err = (&Exec{Argv: []string{"/definitely/missing/binary"}}).Evaluate(context.Background(), command.Request{})
	assert.Error(t, err)
}
