package runtime

import (
	"bytes"
	"errors"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktrunk/worktrunk/internal/directive"
)

type brokenPipeWriter struct{}

func (brokenPipeWriter) Write(p []byte) (int, error) {
	return 0, &pipeError{}
}

type pipeError struct{}

func (*pipeError) Error() string { return "broken pipe" }
func (*pipeError) Unwrap() error { return syscall.EPIPE }

func TestWritePrimaryTranslatesBrokenPipe(t *testing.T) {
	t.Parallel()
	ctx := NewWithWriters(nil, nil, directive.NewAt(""), brokenPipeWriter{}, io.Discard)

	_, err := ctx.WritePrimary([]byte("row\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokenPipe))
}

func TestWritePrimaryPassesThroughOtherErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	ctx := NewWithWriters(nil, nil, directive.NewAt(""), errWriter{boom}, io.Discard)

	_, err := ctx.WritePrimary([]byte("row\n"))
	assert.Equal(t, boom, err)
}

type errWriter struct{ err error }

func (w errWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestWritePrimaryWritesThroughOnSuccess(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := NewWithWriters(nil, nil, directive.NewAt(""), &buf, io.Discard)

	_, err := ctx.WritePrimary([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}

func TestStatusAppendsNewlineWhenMissing(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := NewWithWriters(nil, nil, directive.NewAt(""), io.Discard, &buf)

	ctx.Status("collecting facts")
	assert.Equal(t, "collecting facts\n", buf.String())
}

func TestStatusDoesNotDoubleNewline(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := NewWithWriters(nil, nil, directive.NewAt(""), io.Discard, &buf)

	ctx.Status("already terminated\n")
	assert.Equal(t, "already terminated\n", buf.String())
}
