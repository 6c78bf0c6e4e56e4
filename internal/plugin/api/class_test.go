package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartexter/vartexter/internal/command"
)

const classSource = `
local vt = require("vt")

Upper = vt.TextCommand()
function Upper:run(args, kwargs)
	local text = self.view:text():upper()
	self.view:set_text(text)
	return text
end

Greet = vt.WindowCommand({greeting = "hi"})
function Greet:init()
	self.count = 1
end
function Greet:run(args, kwargs)
	return self.greeting .. " " .. (args[1] or kwargs.name or "nobody") .. " " .. self.count
end

About = vt.ApplicationCommand()
function About:run()
	return self.api.plugin
end

Broken = vt.TextCommand()

NotAClass = {run = function() end}
helper = 1
`

func TestClasses(t *testing.T) {
	host := newFakeHost()
	state, f := newFacade(t, host)
	mustRun(t, state, classSource)

	classes := f.Classes()
	var names []string
	kinds := map[string]command.Kind{}
	for _, c := range classes {
		names = append(names, c.Name)
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, []string{"About", "Broken", "Greet", "Upper"}, names)
	assert.Equal(t, command.Text, kinds["Upper"])
	assert.Equal(t, command.Window, kinds["Greet"])
	assert.Equal(t, command.Application, kinds["About"])
}

func TestResolve(t *testing.T) {
	host := newFakeHost()
	state, f := newFacade(t, host)
	mustRun(t, state, classSource)

	c, err := f.Resolve("Greet")
	require.NoError(t, err)
	assert.Equal(t, "Greet", c.Name)

	for _, symbol := range []string{"NotAClass", "helper", "Missing"} {
		_, err := f.Resolve(symbol)
		require.Error(t, err, symbol)
		assert.Contains(t, err.Error(), "demo")
	}
}

func TestInstanceRun(t *testing.T) {
	host := newFakeHost()
	state, f := newFacade(t, host)
	mustRun(t, state, classSource)

	view := host.window.ActiveView()
	require.NoError(t, view.SetText("abc"))

	upper, err := f.Resolve("Upper")
	require.NoError(t, err)
	r, err := upper.New(command.Target{API: host, Window: host.window, View: view})
	require.NoError(t, err)
	out, err := r.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
	assert.Equal(t, "ABC", view.Text())

	greet, err := f.Resolve("Greet")
	require.NoError(t, err)
	r, err = greet.New(command.Target{API: host, Window: host.window})
	require.NoError(t, err)
	out, err = r.Run([]any{"bob"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi bob 1", out)
	out, err = r.Run(nil, map[string]any{"name": "ann"})
	require.NoError(t, err)
	assert.Equal(t, "hi ann 1", out)

	about, err := f.Resolve("About")
	require.NoError(t, err)
	r, err = about.New(command.Target{API: host})
	require.NoError(t, err)
	out, err = r.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", out)
}

func TestInstanceErrors(t *testing.T) {
	host := newFakeHost()
	state, f := newFacade(t, host)
	mustRun(t, state, classSource+`
Failing = vt.ApplicationCommand()
function Failing:run() error("kaput") end

BadInit = vt.ApplicationCommand()
function BadInit:init() error("no init") end
function BadInit:run() end
`)

	broken, err := f.Resolve("Broken")
	require.NoError(t, err)
	_, err = broken.New(command.Target{API: host})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run method")

	failing, err := f.Resolve("Failing")
	require.NoError(t, err)
	r, err := failing.New(command.Target{API: host})
	require.NoError(t, err)
	_, err = r.Run(nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "kaput"))

	badInit, err := f.Resolve("BadInit")
	require.NoError(t, err)
	_, err = badInit.New(command.Target{API: host})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no init")
}

func TestInstanceAfterClose(t *testing.T) {
	host := newFakeHost()
	state, f := newFacade(t, host)
	mustRun(t, state, classSource)

	about, err := f.Resolve("About")
	require.NoError(t, err)
	state.Close()

	_, err = about.New(command.Target{API: host})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unloaded")
}
