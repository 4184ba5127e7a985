package callbacks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/toolbelt/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct{ name string }

func (t *fakeTool) Name() string                                           { return t.name }
func (t *fakeTool) Description() string                                    { return "desc" }
func (t *fakeTool) Parameters() any                                        { return nil }
func (t *fakeTool) Call(ctx context.Context, input string) (string, error) { return "", nil }

func TestScratchpad_StartRun_EndRun(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeVerbose)
	ctx := WithRunID(context.Background(), "run1")
	sp.StartRun(ctx)

	r := sp.runs["run1"]
	require.NotNil(t, r)
	r.stats.ToolsCalls = 3
	r.stats.ToolsCallsSucceeded = 1
	r.stats.ToolsCallsFailed = 1
	r.stats.ToolNotFound = 1

	stats, buf := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, "run1", stats.RunID)
	require.Contains(t, string(buf), "Run Started")
	require.Contains(t, string(buf), "Run Ended")
	require.Contains(t, string(buf), "Tool calls: 3, Succeeded: 1, Failed: 1, Not Found: 1")
	_, ok := sp.runs["run1"]
	assert.False(t, ok)

	// run already deleted
	s2, _ := sp.EndRun(ctx)
	assert.Nil(t, s2)
}

func TestScratchpad_getRun_nil(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeDefault)
	assert.Nil(t, sp.getRun(context.Background()))
	assert.Nil(t, sp.getRun(WithRunID(context.Background(), "unknown")))

	// no run ID, nothing to start
	sp.StartRun(context.Background())
	assert.Empty(t, sp.runs)
}

func TestScratchpad_OnCallbacks(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeVerbose)
	ctx := WithRunID(context.Background(), "run2")
	sp.StartRun(ctx)

	tool := &fakeTool{name: "T1"}
	args := tools.Args{"location": "Paris"}
	sp.OnToolStart(ctx, tool, args)
	sp.OnToolEnd(ctx, tool, args, tools.Success("T1", "sunny"))
	sp.OnToolStart(ctx, tool, args)
	sp.OnToolError(ctx, tool, args, &tools.Failure{Kind: tools.KindToolExecution, Message: "terr"})
	sp.OnToolNotFound(ctx, "T2")

	stats, output := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, uint32(2), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint32(1), stats.ToolsCallsFailed)
	assert.Equal(t, uint32(1), stats.ToolNotFound)
	assert.Equal(t, map[tools.Kind]uint32{tools.KindToolExecution: 1}, stats.FailedByKind)

	outStr := string(output)
	assert.Contains(t, outStr, "T1 *** Tool Start ***")
	assert.Contains(t, outStr, `T1 Arguments: {"location":"Paris"}`)
	assert.Contains(t, outStr, `T1 Payload: "sunny"`)
	assert.Contains(t, outStr, "T1 *** Tool End ***")
	assert.Contains(t, outStr, "T1 *** Tool Error *** ToolExecutionError: terr")
	assert.Contains(t, outStr, "*** Tool Not Found *** T2")

	// no run, no panic
	sp.OnToolStart(ctx, tool, args)
	sp.OnToolEnd(ctx, tool, args, tools.Success("T1", nil))
	sp.OnToolError(ctx, tool, args, &tools.Failure{Kind: tools.KindToolExecution})
	sp.OnToolNotFound(ctx, "T3")
}

func Test_run_print_format(t *testing.T) {
	r := &run{stats: RunStats{RunID: "run3"}}
	oldTimeFn := TimeNowFn
	TimeNowFn = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { TimeNowFn = oldTimeFn }()

	r.print("hello", "again")
	lines := strings.Split(r.w.String(), "\n")
	require.NotEmpty(t, lines[0])
	assert.Equal(t, "2024-01-01 12:00:00 run3 hello again", lines[0])
}

func TestScratchpad_Duration(t *testing.T) {
	oldTimeFn := TimeNowFn
	defer func() { TimeNowFn = oldTimeFn }()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	TimeNowFn = func() time.Time { return now }

	sp := NewScratchpad(ModeDefault)
	ctx := WithRunID(context.Background(), "run4")
	sp.StartRun(ctx)

	now = now.Add(3 * time.Second)
	stats, journal := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, 3*time.Second, stats.Duration)
	assert.Contains(t, string(journal), "2024-01-01 12:00:03 run4 *** Run Ended. Duration: 3s ***")
}
