package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type resultMsg int

func runAll(cmds []tea.Cmd) []tea.Msg {
	out := make([]tea.Msg, len(cmds))
	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(i int, cmd tea.Cmd) {
			defer wg.Done()
			out[i] = cmd()
		}(i, cmd)
	}
	wg.Wait()
	return out
}

func TestBurstRunsOnlyLatest(t *testing.T) {
	d := New(30 * time.Millisecond)
	var runs atomic.Int32

	var cmds []tea.Cmd
	for i := 0; i < 5; i++ {
		n := i
		cmds = append(cmds, d.Decorate(func() tea.Msg {
			runs.Add(1)
			return resultMsg(n)
		}))
	}

	msgs := runAll(cmds)
	require.Equal(t, int32(1), runs.Load())
	for i := 0; i < 4; i++ {
		require.Nil(t, msgs[i], "call %d should be superseded", i)
	}
	require.Equal(t, resultMsg(4), msgs[4])
}

func TestSupersededWhileWaiting(t *testing.T) {
	d := New(50 * time.Millisecond)
	first := d.Decorate(func() tea.Msg { return resultMsg(1) })

	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()

	time.Sleep(10 * time.Millisecond)
	second := d.Decorate(func() tea.Msg { return resultMsg(2) })

	select {
	case msg := <-done:
		require.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("superseded call did not return")
	}
	require.Equal(t, resultMsg(2), second())
}

func TestSpacedCallsBothRun(t *testing.T) {
	d := New(20 * time.Millisecond)

	first := d.Decorate(func() tea.Msg { return resultMsg(1) })
	require.Equal(t, resultMsg(1), first())

	second := d.Decorate(func() tea.Msg { return resultMsg(2) })
	require.Equal(t, resultMsg(2), second())
}

func TestStopCancelsPending(t *testing.T) {
	d := New(20 * time.Millisecond)
	cmd := d.Decorate(func() tea.Msg { return resultMsg(1) })
	d.Stop()
	require.Nil(t, cmd())
}

func TestDefaultDelay(t *testing.T) {
	require.Equal(t, 150*time.Millisecond, New(0).Delay())
	require.Equal(t, time.Second, New(time.Second).Delay())
}
