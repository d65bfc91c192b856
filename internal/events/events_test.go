package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptforge/internal/models"
)

func TestSSEWriter_FramesAndHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)
	ctx := context.Background()

	require.NoError(t, w.Emit(ctx, Thinking()))
	require.NoError(t, w.Emit(ctx, FileExtracted(models.FileRecord{Path: "src/App.tsx", Content: "x", Type: "typescript"})))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.True(t, rec.Flushed)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "data: {"))
	assert.Equal(t, 2, strings.Count(body, "\n\n"))

	evts, err := DecodeSSE(body)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, EventThinking, evts[0].Type)
	assert.Equal(t, "Analyzing your request...", evts[0].Message)
	require.NotNil(t, evts[1].File)
	assert.Equal(t, "src/App.tsx", evts[1].File.Path)
	assert.Equal(t, "Created src/App.tsx", evts[1].Message)
}

func TestSSEWriter_RefusesCancelledContext(t *testing.T) {
	w := NewSSEWriter(httptest.NewRecorder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Emit(ctx, Thinking()), context.Canceled)
}

func TestEventJSONShape(t *testing.T) {
	data, err := json.Marshal(Complete(3, 4200*time.Millisecond))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "complete", raw["type"])
	assert.EqualValues(t, 3, raw["totalFiles"])
	assert.EqualValues(t, 4200, raw["thinkingDuration"])
	assert.NotContains(t, raw, "file")

	data, err = json.Marshal(Failed(""))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Generation failed"`)
}

func TestShouldEmitThinkingLonger(t *testing.T) {
	assert.False(t, ShouldEmitThinkingLonger(1200*time.Millisecond))
	assert.False(t, ShouldEmitThinkingLonger(3000*time.Millisecond))
	assert.True(t, ShouldEmitThinkingLonger(4200*time.Millisecond))
}

func TestGuard_ClosesAfterTerminal(t *testing.T) {
	rec := &Recorder{}
	g := NewGuard(rec)
	ctx := context.Background()

	require.NoError(t, g.Emit(ctx, Thinking()))
	require.NoError(t, g.Emit(ctx, Failed("boom")))
	assert.True(t, g.Closed())
	assert.ErrorIs(t, g.Emit(ctx, Generating()), ErrStreamClosed)

	assert.Equal(t, []EventType{EventThinking, EventError}, rec.Types())
}

func TestFanout_ObserverFailureDoesNotBreakPrimary(t *testing.T) {
	var logBuf bytes.Buffer
	logger := zerolog.New(&logBuf)
	primary := &Recorder{}
	broken := SinkFunc(func(context.Context, Event) error { return errors.New("redis down") })
	observer := &Recorder{}

	f := NewFanout(&logger, primary, broken, observer)
	require.NoError(t, f.Emit(context.Background(), Thinking()))

	assert.Len(t, primary.Events(), 1)
	assert.Len(t, observer.Events(), 1)
	assert.Contains(t, logBuf.String(), "redis down")
}

func TestFanout_ReturnsPrimaryError(t *testing.T) {
	primary := SinkFunc(func(context.Context, Event) error { return errors.New("client gone") })
	f := NewFanout(nil, primary)
	assert.EqualError(t, f.Emit(context.Background(), Thinking()), "client gone")
}

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	evt := Complete(2, time.Second)
	evt.GenerationID = "gen-1"

	require.NoError(t, LogSink{Logger: &logger}.Emit(context.Background(), evt))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "complete", line["event"])
	assert.Equal(t, "gen-1", line["generation_id"])
	assert.EqualValues(t, 2, line["total_files"])
}

type fakePublisher struct {
	channel string
	payload []byte
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, nil)
}

func TestRedisPublisher_PublishesOnProjectChannel(t *testing.T) {
	pub := &fakePublisher{}
	p := NewRedisPublisher(pub, "p-1")

	require.NoError(t, p.Emit(context.Background(), Generating()))

	assert.Equal(t, "generation:project:p-1", pub.channel)
	assert.Contains(t, string(pub.payload), `"type":"generating"`)
}

func TestValidateSequence(t *testing.T) {
	file := FileExtracted(models.FileRecord{Path: "a"})
	good := []Event{Thinking(), ThinkingLonger(4 * time.Second), Generating(), file, Complete(1, 4*time.Second)}
	require.NoError(t, ValidateSequence(good))
	require.NoError(t, ValidateSequence([]Event{Thinking(), Failed("x")}))
	require.NoError(t, ValidateSequence([]Event{Thinking(), Generating(), Failed("x")}))

	bad := map[string][]Event{
		"empty":                  nil,
		"no thinking":            {Generating(), Complete(0, 0)},
		"file before generating": {Thinking(), file, Generating(), Complete(1, 0)},
		"late thinking_longer":   {Thinking(), Generating(), ThinkingLonger(time.Second), Complete(0, 0)},
		"no terminal":            {Thinking(), Generating()},
		"double terminal":        {Thinking(), Failed("a"), Failed("b")},
		"wrong total":            {Thinking(), Generating(), file, Complete(2, 0)},
	}
	for name, seq := range bad {
		assert.Error(t, ValidateSequence(seq), name)
	}
}

func TestRelay_StopsAfterTerminalEvent(t *testing.T) {
	ch := make(chan *redis.Message, 4)
	for _, evt := range []Event{Thinking(), Generating(), Complete(0, time.Second), Thinking()} {
		data, err := json.Marshal(evt)
		require.NoError(t, err)
		ch <- &redis.Message{Channel: Channel("p-1"), Payload: string(data)}
	}

	rec := &Recorder{}
	require.NoError(t, relay(context.Background(), ch, rec))
	assert.Equal(t, []EventType{EventThinking, EventGenerating, EventComplete}, rec.Types())
	assert.Len(t, ch, 1)
}

func TestRelay_SkipsUndecodablePayloads(t *testing.T) {
	ch := make(chan *redis.Message, 2)
	ch <- &redis.Message{Payload: "{not json"}
	close(ch)

	rec := &Recorder{}
	require.NoError(t, relay(context.Background(), ch, rec))
	assert.Empty(t, rec.Events())
}
