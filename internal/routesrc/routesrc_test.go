package routesrc

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/router"
)

const routesJSON = `{
  "routes": [
    {"path": "/", "component": "homeCmp", "name": "Home"},
    {"path": "/users/:id", "component": "userCmp", "name": "User", "children": [
      {"path": "/posts/:post", "component": "postCmp", "name": "Post"}
    ]},
    {"path": "/old", "redirectTo": "/"}
  ]
}`

const routesYAML = `
- path: /
  component: homeCmp
  name: Home
- path: /users/:id
  component: userCmp
  name: User
  guard: params.id != "0"
  children:
    - path: /posts/:post
      component: postCmp
      name: Post
`

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"json document", routesJSON, FormatJSON},
		{"json list", `[{"path": "/", "component": "homeCmp", "name": "Home"}, {"path": "/users/:id", "component": "userCmp", "name": "User", "children": [{"path": "/posts/:post", "component": "postCmp", "name": "Post"}]}]`, FormatJSON},
		{"yaml list", routesYAML, FormatYAML},
		{"yaml document", "routes:\n" + indent(routesYAML), FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(routes), 2)
			assert.Equal(t, "Home", routes[0].Name)
			require.Len(t, routes[1].Children, 1)
			assert.Equal(t, "/posts/:post", routes[1].Children[0].Path)

			r := router.New()
			require.NoError(t, r.Configure(routes))
			instr, err := r.Recognizer().Recognize("/users/7/posts/1")
			require.NoError(t, err)
			assert.Equal(t, "Post", instr.Leaf().Name())
		})
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`[{"path": "/", "compnent": "x"}]`), FormatJSON)
	assert.Equal(t, "R210", errors.CodeOf(err))

	_, err = Parse([]byte("- path: /\n  compnent: x\n"), FormatYAML)
	assert.Equal(t, "R210", errors.CodeOf(err))
}

func TestParseEmpty(t *testing.T) {
	routes, err := Parse([]byte("  \n"), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestFormatOf(t *testing.T) {
	for name, want := range map[string]Format{
		"routes.json":    FormatJSON,
		"a/b/routes.YML": FormatYAML,
		"routes.yaml":    FormatYAML,
	} {
		got, err := FormatOf(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := FormatOf("routes.toml")
	assert.Equal(t, "R211", errors.CodeOf(err))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routesYAML), 0644))

	routes, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, routes, 2)
	assert.Equal(t, `params.id != "0"`, routes[1].Guard)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Equal(t, "R210", errors.CodeOf(err))
}

func TestFileSourceReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := Load(context.Background(), path)
	var coded *errors.Error
	require.True(t, stderrors.As(err, &coded))
	assert.Equal(t, path, coded.Source)
}

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"conf/app/routes.json": routesJSON}}

	src, err := Open("s3://conf/app/routes.json", WithS3Client(fake))
	require.NoError(t, err)
	assert.Equal(t, "s3://conf/app/routes.json", src.String())

	routes, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, routes, 3)
	assert.Equal(t, []string{"conf/app/routes.json"}, fake.calls)

	_, err = Load(context.Background(), "s3://conf/missing.json", WithS3Client(fake))
	assert.Equal(t, "R210", errors.CodeOf(err))
}

func TestOpenRejects(t *testing.T) {
	for _, uri := range []string{
		"s3://bucket",
		"s3:///routes.json",
		"s3://bucket/routes.txt",
		"https://example.com/routes.json",
		"routes",
	} {
		_, err := Open(uri, WithS3Client(&fakeS3{}))
		assert.Equal(t, "R211", errors.CodeOf(err), uri)
	}
}

func TestOpenBuildsS3Client(t *testing.T) {
	src, err := Open("s3://bucket/routes.yaml", WithS3Options(S3Options{Region: "eu-west-1", Endpoint: "http://localhost:9000", UsePathStyle: true}))
	require.NoError(t, err)

	s, ok := src.(S3)
	require.True(t, ok)
	client, ok := s.Client.(*s3.Client)
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
}

func TestEncodeRoundTrip(t *testing.T) {
	routes, err := Parse([]byte(routesJSON), FormatJSON)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, routes, format))

		again, err := Parse(buf.Bytes(), format)
		require.NoError(t, err, format)
		assert.Equal(t, routes, again, format)
	}
}
