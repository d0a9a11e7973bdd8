package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knob/cmd/knob/commands"
	"go.trai.ch/knob/internal/app"
	"go.trai.ch/knob/internal/build"
	"go.trai.ch/knob/internal/engine/migration"
)

type call struct {
	name string
	args []string
	opts app.Options
}

type mockApp struct {
	calls    []call
	value    string
	updates  []string
	statuses []migration.StepStatus
	err      error
}

func (m *mockApp) record(name string, opts app.Options, args ...string) {
	m.calls = append(m.calls, call{name: name, args: args, opts: opts})
}

func (m *mockApp) Get(_ context.Context, key string, opts app.Options) (string, error) {
	m.record("get", opts, key)
	return m.value, m.err
}

func (m *mockApp) Set(_ context.Context, key, value string, opts app.Options) error {
	m.record("set", opts, key, value)
	return m.err
}

func (m *mockApp) Unset(_ context.Context, key string, opts app.Options) error {
	m.record("unset", opts, key)
	return m.err
}

func (m *mockApp) MigrateUp(_ context.Context, target string, opts app.Options) error {
	m.record("up", opts, target)
	return m.err
}

func (m *mockApp) MigrateDown(_ context.Context, target string, opts app.Options) error {
	m.record("down", opts, target)
	return m.err
}

func (m *mockApp) Status(_ context.Context, opts app.Options) ([]migration.StepStatus, error) {
	m.record("status", opts)
	return m.statuses, m.err
}

func (m *mockApp) Watch(_ context.Context, key string, opts app.Options, emit func(string)) error {
	m.record("watch", opts, key)
	for _, u := range m.updates {
		emit(u)
	}
	return m.err
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Settings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want call
	}{
		{
			name: "get",
			args: []string{"get", "server.port", "--type", "int"},
			want: call{name: "get", args: []string{"server.port"}, opts: app.Options{Type: "int"}},
		},
		{
			name: "set with config",
			args: []string{"-c", "conf/knob.yaml", "set", "server.port", "8080", "-t", "int"},
			want: call{
				name: "set",
				args: []string{"server.port", "8080"},
				opts: app.Options{ConfigPath: "conf/knob.yaml", Type: "int"},
			},
		},
		{
			name: "unset",
			args: []string{"unset", "server.port", "--config", "knob.yaml"},
			want: call{name: "unset", args: []string{"server.port"}, opts: app.Options{ConfigPath: "knob.yaml"}},
		},
		{
			name: "migrate up without target",
			args: []string{"migrate", "up"},
			want: call{name: "up", args: []string{""}},
		},
		{
			name: "migrate down to target",
			args: []string{"migrate", "down", "v2"},
			want: call{name: "down", args: []string{"v2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockApp{}
			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			require.Len(t, mock.calls, 1)
			assert.Equal(t, tt.want, mock.calls[0])
		})
	}
}

func TestCommands_Get_PrintsValue(t *testing.T) {
	mock := &mockApp{value: "8080"}
	out, err := execute(t, mock, "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "8080\n", out)
}

func TestCommands_ArgumentValidation(t *testing.T) {
	for _, args := range [][]string{
		{"get"},
		{"set", "only-key"},
		{"unset"},
		{"migrate", "up", "a", "b"},
		{"migrate", "status", "extra"},
	} {
		mock := &mockApp{}
		_, err := execute(t, mock, args...)
		require.Error(t, err, args)
		assert.Empty(t, mock.calls, args)
	}
}

func TestCommands_ReturnsAppErrors(t *testing.T) {
	mock := &mockApp{err: errors.New("simulated error")}
	_, err := execute(t, mock, "set", "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
}

func TestCommands_MigrateStatus(t *testing.T) {
	mock := &mockApp{statuses: []migration.StepStatus{
		{Key: "create-flags", Applied: true},
		{Key: "rename-theme", SettingSet: "ui", Applied: false},
	}}

	out, err := execute(t, mock, "migrate", "status")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "migrate_status", []byte(out))
}

func TestCommands_MigrateShowsUsage(t *testing.T) {
	mock := &mockApp{}
	out, err := execute(t, mock, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Empty(t, mock.calls)
}

func TestCommands_Watch(t *testing.T) {
	mock := &mockApp{updates: []string{"light", "dark", app.MissingValue}}
	out, err := execute(t, mock, "watch", "ui.theme", "-c", "knob.yaml")
	require.NoError(t, err)
	assert.Equal(t, "light\ndark\n<unset>\n", out)
	assert.Equal(t, []call{{name: "watch", args: []string{"ui.theme"}, opts: app.Options{ConfigPath: "knob.yaml"}}}, mock.calls)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "knob version "+build.Version)
	assert.Contains(t, out, build.Commit)
}
