package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: UnknownValue},
		{name: "empty version", ctx: NewContext("", "2025-03-10"), want: UnknownValue},
		{name: "valid version", ctx: NewContext("1.0.0", "2025-03-10"), want: "1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctx.GetVersion())
		})
	}
}

func TestContext_BuildDate(t *testing.T) {
	t.Parallel()

	var nilCtx *Context
	assert.Equal(t, UnknownValue, nilCtx.GetBuildDate())
	assert.Equal(t, "2025-03-10", NewContext("1.0.0", "2025-03-10").GetBuildDate())
}

func TestContext_String(t *testing.T) {
	t.Parallel()

	s := NewContext("1.2.3", "").String()
	assert.Contains(t, s, "eloc-raven 1.2.3")
	assert.Contains(t, s, "built unknown")
	assert.Contains(t, s, runtime.GOOS)
}
