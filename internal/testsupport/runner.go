package testsupport

import "context"

// ToolCall records one external tool invocation.
type ToolCall struct {
	Binary string
	Args   []string
}

// FakeRunner satisfies tools.Runner, recording invocations instead of
// executing anything. OnRun, when set, runs per call and can create the
// output files a stage expects; Err fails every call.
type FakeRunner struct {
	Calls []ToolCall
	Err   error
	OnRun func(binary string, args []string) error
}

func (f *FakeRunner) Run(_ context.Context, binary string, args ...string) error {
	f.Calls = append(f.Calls, ToolCall{Binary: binary, Args: args})
	if f.Err != nil {
		return f.Err
	}
	if f.OnRun != nil {
		return f.OnRun(binary, args)
	}
	return nil
}
