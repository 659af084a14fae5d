package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func TestColorize(t *testing.T) {
	defer SetColorEnabled(ColorEnabled())

	SetColorEnabled(false)
	assert.Equal(t, "FAILED:", Red("FAILED:"))

	SetColorEnabled(true)
	assert.Equal(t, "\033[31mFAILED:\033[0m", Red("FAILED:"))
	assert.Equal(t, "\033[2mx\033[0m", Dim("x"))
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	require.NoError(t, n.StatusChanged("p9000001", "P-1 | B1=1000000 complete"))
	require.NoError(t, n.Failed("e1277", "truncated: read 0 of 4 bytes at offset 52"))

	assert.Equal(t, []string{"p95status: p9000001", "p95status: e1277 failed"}, sender.titles)
	assert.Equal(t, "P-1 | B1=1000000 complete", sender.messages[0])
}

func TestNotifierErrorsAndNil(t *testing.T) {
	n := NewNotifierWithSender(&recordingSender{err: errors.New("no display")})
	assert.EqualError(t, n.StatusChanged("p1", "x"), "no display")

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.StatusChanged("p1", "x"))
	assert.NoError(t, NewNotifierWithSender(nil).Failed("p1", "x"))
	assert.False(t, nilNotifier.Supported())
	assert.False(t, NewNotifierWithSender(nil).Supported())
	assert.True(t, n.Supported())
}

func TestPSQuote(t *testing.T) {
	assert.Equal(t, "it''s", psQuote("it's"))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", Bar(0.5, 10))
	assert.Equal(t, "░░░░", Bar(-1, 4))
	assert.Equal(t, "████", Bar(2, 4))
	assert.Equal(t, "", Bar(0.5, 0))
}

func TestRunTracker(t *testing.T) {
	defer SetColorEnabled(ColorEnabled())
	SetColorEnabled(false)

	rt := NewRunTracker()
	rt.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }
	rt.StartTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	rt.Begin(nil)
	assert.Equal(t, "[RUN 1] 09:30:00", rt.Header(nil))

	rt.Begin([]string{"m1", "p2"})
	assert.Equal(t, 2, rt.Runs)
	assert.Equal(t, 2, rt.Changed)
	assert.Equal(t, "[RUN 2] 09:30:00 changed: m1, p2", rt.Header([]string{"m1", "p2"}))
	assert.Equal(t, 30*time.Minute, rt.GetElapsedTime())

	var buf bytes.Buffer
	rt.PrintChange(&buf, "p2", "", "LL | Iteration 1/100 [1.00%]")
	rt.PrintChange(&buf, "m1", "x", "")
	rt.PrintChange(&buf, "e3", "x", "y")
	assert.Equal(t, "  + p2: LL | Iteration 1/100 [1.00%]\n  - m1\n  ~ e3: y\n", buf.String())
}
