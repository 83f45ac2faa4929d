package threadpool

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunTask(t *testing.T) {
	tests := []struct {
		name      string
		task      Task
		wantPanic any
	}{
		{name: "returns normally", task: func() {}},
		{name: "panics with string", task: func() { panic("bad") }, wantPanic: "bad"},
		{name: "panics with error", task: func() { panic(errSentinel) }, wantPanic: errSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runTask(tt.task, 3, 7)
			if tt.wantPanic == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrTaskPanicked)
			tpe, ok := AsTaskPanic(err)
			require.True(t, ok)
			require.Equal(t, tt.wantPanic, tpe.Value)
			require.Equal(t, 3, tpe.WorkerID)
			require.EqualValues(t, 7, tpe.Seq)
			require.Contains(t, string(tpe.Stack), "runTask")
		})
	}
}

var errSentinel = errors.New("sentinel")

func TestRunTask_NilPanic(t *testing.T) {
	err := runTask(func() { panic(nil) }, 0, 0)
	require.ErrorIs(t, err, ErrTaskPanicked)
}

func TestTaskPanicError_Format(t *testing.T) {
	e := &TaskPanicError{WorkerID: 1, Seq: 3, Value: "boom", Stack: []byte("goroutine 1 [running]:")}

	require.Equal(t, "threadpool: task execution panicked: boom", e.Error())
	require.Equal(t, e.Error(), fmt.Sprintf("%v", e))
	require.Equal(t, e.Error(), fmt.Sprintf("%s", e))
	require.Equal(t, fmt.Sprintf("%q", e.Error()), fmt.Sprintf("%q", e))

	plus := fmt.Sprintf("%+v", e)
	require.True(t, strings.HasPrefix(plus, "task(seq=3,worker=1): threadpool: task execution panicked: boom"))
	require.Contains(t, plus, "goroutine 1 [running]:")
}

func TestAsTaskPanic_Wrapped(t *testing.T) {
	inner := &TaskPanicError{Value: 1}
	wrapped := fmt.Errorf("request failed: %w", inner)

	got, ok := AsTaskPanic(wrapped)
	require.True(t, ok)
	require.Same(t, inner, got)

	_, ok = AsTaskPanic(errors.New("plain"))
	require.False(t, ok)
}

func TestMessages(t *testing.T) {
	m := taskMessage(func() {}, 5)
	require.False(t, m.shutdown)
	require.NotNil(t, m.task)
	require.EqualValues(t, 5, m.seq)

	s := shutdownMessage()
	require.True(t, s.shutdown)
	require.Nil(t, s.task)
}
