package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/router"
)

const testRoutes = `
- path: /
  component: homeCmp
  name: Home
- path: /users/:id
  component: userCmp
  name: User
  children:
    - path: /posts/:post
      component: postCmp
      name: Post
- path: /old
  redirectTo: /
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.yaml"), []byte(testRoutes), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outlet.json"), []byte(`{"routes": "routes.yaml", "logLevel": "error"}`), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesTree(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "routes", "-c", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/users/:id")
	assert.Contains(t, out, "  /posts/:post")
	assert.Contains(t, out, "-> /")
}

func TestRoutesJSON(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "routes", "-c", dir, "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Routes []*router.RouteConfig `json:"routes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Routes, 3)

	_, err = run(t, "routes", "-c", dir, "--format", "xml")
	assert.Equal(t, "R300", errors.CodeOf(err))
}

func TestRecognize(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "recognize", "-c", dir, "/users/7/posts/1", "/old")
	require.NoError(t, err)
	assert.Contains(t, out, "/users/7/posts/1 => /users/7/posts/1")
	assert.Contains(t, out, "User(id=7) > Post(post=1)")
	assert.Contains(t, out, "/old => /")

	_, err = run(t, "recognize", "-c", dir, "/missing")
	assert.ErrorIs(t, err, router.ErrNoMatch)
}

func TestRecognizeJSON(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "recognize", "-c", dir, "--json", "/users/7")
	require.NoError(t, err)
	var v instructionView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "/users/7", v.URL)
	require.Len(t, v.Levels, 1)
	assert.Equal(t, "7", v.Levels[0].Params["id"])
}

func TestGenerate(t *testing.T) {
	dir := setup(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"/User", "id=7"}, "/users/7\n"},
		{[]string{"/User", "id=7", "Post", "post=1"}, "/users/7/posts/1\n"},
		{[]string{"Post", "id=7", "post=1"}, "/users/7/posts/1\n"},
		{[]string{"/Home", "tab=2"}, "/?tab=2\n"},
		{[]string{"--href", "/Home"}, "./\n"},
	}

	for _, tt := range tests {
		args := append([]string{"generate", "-c", dir}, tt.args...)
		out, err := run(t, args...)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, out, tt.args)
	}
}

func TestGenerateErrors(t *testing.T) {
	dir := setup(t)

	_, err := run(t, "generate", "-c", dir, "/User")
	assert.ErrorIs(t, err, router.ErrMissingParam)

	_, err = run(t, "generate", "-c", dir, "id=7")
	assert.Equal(t, "R300", errors.CodeOf(err))

	_, err = run(t, "generate", "-c", dir, "/Nope")
	assert.ErrorIs(t, err, router.ErrUnknownRouteName)
}

func TestRoutesFlagOverride(t *testing.T) {
	dir := setup(t)
	other := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`[{"path": "/x", "component": "xCmp", "name": "X"}]`), 0644))

	out, err := run(t, "generate", "-c", dir, "-r", other, "/X")
	require.NoError(t, err)
	assert.Equal(t, "/x\n", out)
}

func TestTargetExpr(t *testing.T) {
	expr, err := targetExpr([]string{"/User", "id=7", "Post", "post=1"})
	require.NoError(t, err)
	assert.Equal(t, []any{"/User", router.Params{"id": "7"}, "Post", router.Params{"post": "1"}}, expr)

	_, err = targetExpr([]string{"=x"})
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
