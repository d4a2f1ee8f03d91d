package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	info Info
}

func (f *fakeAdapter) GetInfo() Info                      { return f.info }
func (f *fakeAdapter) ValidateParams(params map[string]any) error { return nil }
func (f *fakeAdapter) Execute(ctx context.Context, params map[string]any) (*Result, error) {
	return &Result{Status: ResultSuccess}, nil
}

func TestManager_LoadAdapter_CachesInstance(t *testing.T) {
	m := NewManager()
	calls := 0
	m.Register("whois", func() Adapter {
		calls++
		return &fakeAdapter{info: Info{Name: "whois", Description: "lookup"}}
	})

	a1, err := m.LoadAdapter("whois")
	require.NoError(t, err)
	a2, err := m.LoadAdapter("whois")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, 1, calls)
}

func TestManager_LoadAdapter_UnregisteredNameErrors(t *testing.T) {
	m := NewManager()
	_, err := m.LoadAdapter("nope")
	assert.Error(t, err)
}

func TestManager_LoadAdapter_RejectsInvalidAdapter(t *testing.T) {
	m := NewManager()
	m.Register("broken", func() Adapter { return &fakeAdapter{info: Info{Name: ""}} })

	_, err := m.LoadAdapter("broken")
	assert.Error(t, err)
}

func TestManager_ListAvailableAndLoaded(t *testing.T) {
	m := NewManager()
	m.Register("whois", func() Adapter { return &fakeAdapter{info: Info{Name: "whois", Description: "d"}} })
	m.Register("nmap", func() Adapter { return &fakeAdapter{info: Info{Name: "nmap", Description: "d"}} })

	assert.ElementsMatch(t, []string{"whois", "nmap"}, m.ListAvailable())
	assert.Empty(t, m.ListLoaded())

	_, err := m.LoadAdapter("whois")
	require.NoError(t, err)
	assert.Equal(t, []string{"whois"}, m.ListLoaded())
}

func TestManager_UnloadAdapter(t *testing.T) {
	m := NewManager()
	m.Register("whois", func() Adapter { return &fakeAdapter{info: Info{Name: "whois", Description: "d"}} })
	_, err := m.LoadAdapter("whois")
	require.NoError(t, err)

	m.UnloadAdapter("whois")
	assert.Empty(t, m.ListLoaded())
}

func TestManager_GetAdapterInfo_RequiresLoaded(t *testing.T) {
	m := NewManager()
	m.Register("whois", func() Adapter { return &fakeAdapter{info: Info{Name: "whois", Description: "d"}} })

	_, err := m.GetAdapterInfo("whois")
	assert.Error(t, err)

	_, err = m.LoadAdapter("whois")
	require.NoError(t, err)
	info, err := m.GetAdapterInfo("whois")
	require.NoError(t, err)
	assert.Equal(t, "whois", info.Name)
}

func TestManager_CleanupAll_ClearsLoaded(t *testing.T) {
	m := NewManager()
	m.Register("whois", func() Adapter { return &fakeAdapter{info: Info{Name: "whois", Description: "d"}} })
	_, err := m.LoadAdapter("whois")
	require.NoError(t, err)

	m.CleanupAll()
	assert.Empty(t, m.ListLoaded())
}
