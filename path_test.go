package ember

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilePathLiterals(t *testing.T) {
	segs := compilePath("/users/posts")
	assert.Len(t, segs, 2)
	assert.Equal(t, literalSegment, segs[0].kind)
	assert.Equal(t, "users", segs[0].literal)
	assert.Equal(t, literalSegment, segs[1].kind)
	assert.Equal(t, "posts", segs[1].literal)
}

func TestCompilePathParams(t *testing.T) {
	segs := compilePath("/users/:id[^\\d+$]/posts/:slug")
	assert.Len(t, segs, 4)
	assert.Equal(t, paramSegment, segs[1].kind)
	assert.Equal(t, "id", segs[1].name)
	assert.Equal(t, "^\\d+$", segs[1].pattern)
	assert.False(t, segs[1].never)

	assert.Equal(t, paramSegment, segs[3].kind)
	assert.Equal(t, "slug", segs[3].name)
	assert.Equal(t, "(.+)", segs[3].pattern)
}

func TestCompilePathEmptyRegexNeverMatches(t *testing.T) {
	segs := compilePath("/x/:val[]")
	assert.True(t, segs[1].never)
}

func TestCompilePathWildcard(t *testing.T) {
	segs := compilePath("/assets/*")
	assert.Len(t, segs, 2)
	assert.Equal(t, wildcardSegment, segs[1].kind)
}

func TestParseParamSegment(t *testing.T) {
	tests := []struct {
		name, input, key, pattern string
		never                     bool
	}{
		{"BasicRegex", ":id[^\\d+$]", "id", "^\\d+$", false},
		{"EmptyRegex", ":id[]", "id", "", true},
		{"NoRegex", ":id", "id", "(.+)", false},
		{"LiteralRegex", ":id[xxx]", "id", "xxx", false},
		{"WildcardRegex", ":id[*]", "id", "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, pattern, never := parseParamSegment(tt.input)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.pattern, pattern)
			assert.Equal(t, tt.never, never)
		})
	}
}

func TestPathSplitFirstSlash(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"/api", nil},
		{"/api/demo", []string{"/api", "/demo"}},
		{"/api/demo/cookie", []string{"/api", "/demo/cookie"}},
		{"/", nil},
		{"", nil},
		{"api", nil},
		{"api/", nil},
		{"api/demo", []string{"api", "/demo"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, PathSplitFirstSlash(tt.input))
		})
	}
}

func TestExpandPath(t *testing.T) {
	assert.Equal(t, []string{"path", "to", "route"}, ExpandPath("/path/to/route"))
	assert.Equal(t, []string{"path:to:[^route]"}, ExpandPath("path:to:[^route]"))
	assert.Nil(t, ExpandPath("///"))
}

func TestExpandPathTrailingSlashIsSignificant(t *testing.T) {
	assert.Equal(t, []string{"a"}, ExpandPath("/a"))
	assert.Equal(t, []string{"a", ""}, ExpandPath("/a/"))
	assert.Equal(t, []string{"a", "b"}, ExpandPath("/a/b"))
	assert.Equal(t, []string{"a", "b", ""}, ExpandPath("/a/b/"))
	assert.Nil(t, ExpandPath("/"))
	assert.Nil(t, ExpandPath(""))
}

func TestCompilePathTrailingSlashIsDistinctSegmentList(t *testing.T) {
	withoutSlash := compilePath("/a")
	withSlash := compilePath("/a/")

	assert.Len(t, withoutSlash, 1)
	assert.Len(t, withSlash, 2)
	assert.Equal(t, literalSegment, withSlash[1].kind)
	assert.Equal(t, "", withSlash[1].literal)
}
