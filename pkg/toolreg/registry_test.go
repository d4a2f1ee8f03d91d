package toolreg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string                { return s.name }
func (s stubTool) Description() string         { return "stub tool " + s.name }
func (s stubTool) ParamsSchema() map[string]any { return map[string]any{} }
func (s stubTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return "ok", nil
}

func TestRegistry_RegisterAndGetTool(t *testing.T) {
	r := New()
	r.Register(stubTool{name: "whois"})

	assert.True(t, r.HasTool("whois"))
	tool, err := r.GetTool("whois")
	require.NoError(t, err)
	assert.Equal(t, "whois", tool.Name())
}

func TestRegistry_GetTool_UnknownNameErrors(t *testing.T) {
	r := New()
	_, err := r.GetTool("nmap")
	assert.Error(t, err)
}

func TestRegistry_ListAndNames(t *testing.T) {
	r := New()
	r.Register(stubTool{name: "whois"})
	r.Register(stubTool{name: "nmap"})

	assert.Len(t, r.List(), 2)
	assert.ElementsMatch(t, []string{"whois", "nmap"}, r.Names())
}

func TestRegistry_Scoped_OnlyIncludesGrantedNames(t *testing.T) {
	r := New()
	r.Register(stubTool{name: "whois"})
	r.Register(stubTool{name: "nmap"})
	r.Register(stubTool{name: "sqlmap"})

	scoped := r.Scoped([]string{"whois", "sqlmap", "does_not_exist"})

	assert.True(t, scoped.HasTool("whois"))
	assert.True(t, scoped.HasTool("sqlmap"))
	assert.False(t, scoped.HasTool("nmap"))
	assert.False(t, scoped.HasTool("does_not_exist"))
}

func TestRegistry_Scoped_IsIndependentFromParent(t *testing.T) {
	r := New()
	r.Register(stubTool{name: "whois"})
	scoped := r.Scoped([]string{"whois"})

	r.Register(stubTool{name: "nmap"})
	assert.False(t, scoped.HasTool("nmap"))
}
