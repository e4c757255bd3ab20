package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) Register(ctx context.Context) error   { return f.record("register") }
func (f *fakeExec) Login(ctx context.Context) error      { return f.record("login") }
func (f *fakeExec) Logout(ctx context.Context) error     { return f.record("logout") }
func (f *fakeExec) UseDate(ctx context.Context) error    { return f.record("use") }
func (f *fakeExec) Areas(ctx context.Context) error      { return f.record("areas") }
func (f *fakeExec) Rows(ctx context.Context) error       { return f.record("rows") }
func (f *fakeExec) Add(ctx context.Context) error        { return f.record("add") }
func (f *fakeExec) Set(ctx context.Context) error        { return f.record("set") }
func (f *fakeExec) Confirm(ctx context.Context) error    { return f.record("confirm") }
func (f *fakeExec) ConfirmAll(ctx context.Context) error { return f.record("confirmall") }
func (f *fakeExec) Total(ctx context.Context) error      { return f.record("total") }
func (f *fakeExec) Audit(ctx context.Context) error      { return f.record("audit") }
func (f *fakeExec) Suggest(ctx context.Context) error    { return f.record("suggest") }
func (f *fakeExec) Export(ctx context.Context) error     { return f.record("export") }

func muteOutput(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	muteOutput(t)

	input := strings.Join([]string{
		"login",
		"areas",
		"add",
		"set",
		"confirm",
		"total",
		"logout",
		"exit",
	}, "\n") + "\n"

	f := &fakeExec{}
	runREPL(context.Background(), f, func(context.Context) string { return "" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"login", "areas", "add", "set", "confirm", "total", "logout"}, f.calls)
}

func TestRunREPL_SkipsBlankAndUnknown(t *testing.T) {
	muteOutput(t)

	input := "\nbogus\nrows\nquit\n"

	f := &fakeExec{}
	runREPL(context.Background(), f, func(context.Context) string { return "" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"rows"}, f.calls)
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	muteOutput(t)

	f := &fakeExec{}
	runREPL(context.Background(), f, func(context.Context) string { return "" }, bufio.NewReader(strings.NewReader("audit")))

	assert.Equal(t, []string{"audit"}, f.calls)
}
