package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(Config{
		AuthorizedNetworks:  []string{"10.0.0.0/8"},
		AuthorizedDomains:   []string{"example.test"},
		GlobalMaxPerMinute:  100,
		DefaultMaxPerMinute: 5,
	})
}

func TestEngine_ValidateAsset_AuthorizedDomain(t *testing.T) {
	e := testEngine()
	err := e.ValidateAsset(Asset{Target: "scan.example.test", Kind: AssetDomain})
	require.NoError(t, err)
}

func TestEngine_ValidateAsset_UnauthorizedDomain(t *testing.T) {
	e := testEngine()
	err := e.ValidateAsset(Asset{Target: "evil.example.com", Kind: AssetDomain})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTargetNotAuthorized))
	assert.Len(t, e.ViolationReport(), 1)
}

func TestEngine_ValidateAsset_AuthorizedIP(t *testing.T) {
	e := testEngine()
	require.NoError(t, e.ValidateAsset(Asset{Target: "10.1.2.3", Kind: AssetHost}))
}

func TestEngine_ValidateAsset_UnauthorizedIP(t *testing.T) {
	e := testEngine()
	err := e.ValidateAsset(Asset{Target: "8.8.8.8", Kind: AssetHost})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTargetNotAuthorized))
}

func TestEngine_EnforceRateLimits_KeyedByAdapterNotTarget(t *testing.T) {
	e := testEngine()

	// Two different adapters hitting the SAME target must not share a
	// budget: each gets its own adapter-keyed window.
	for i := 0; i < 5; i++ {
		require.NoError(t, e.EnforceRateLimits("whois"))
		e.RecordUsage("whois")
	}
	err := e.EnforceRateLimits("whois")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))

	// A different adapter against the same target is unaffected.
	require.NoError(t, e.EnforceRateLimits("dns_lookup"))
}

func TestEngine_EnforceRateLimits_OneAdapterAcrossManyTargetsSharesBudget(t *testing.T) {
	e := testEngine()

	// The SAME adapter scanning many different targets must consume one
	// shared budget, not go unbounded.
	for i := 0; i < 5; i++ {
		require.NoError(t, e.EnforceRateLimits("nmap"))
		e.RecordUsage("nmap")
	}
	err := e.EnforceRateLimits("nmap")
	require.Error(t, err)
}

func TestEngine_CurrentRates_ReturnsRateNotRawCount(t *testing.T) {
	e := testEngine()
	e.RecordUsage("whois")
	e.RecordUsage("whois")

	global, adapterRate := e.CurrentRates("whois")
	assert.Greater(t, global, 0.0)
	assert.Greater(t, adapterRate, 0.0)
	assert.Less(t, adapterRate, 2.0) // 2 requests / 60s window, not the raw count 2
}

func TestEngine_CheckExploitPermissions_LabModeBypass(t *testing.T) {
	e := NewEngine(Config{LabMode: true})
	require.NoError(t, e.CheckExploitPermissions("exploit/windows/smb/ms17_010_eternalblue"))
}

func TestEngine_CheckExploitPermissions_DefaultDenied(t *testing.T) {
	e := NewEngine(Config{})
	err := e.CheckExploitPermissions("exploit/windows/smb/ms17_010_eternalblue")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExploitNotPermitted))
}

func TestEngine_CheckExploitPermissions_AllowedListAdmits(t *testing.T) {
	e := NewEngine(Config{AllowedExploits: []string{"exploit/windows/smb/ms17_010_eternalblue"}})
	require.NoError(t, e.CheckExploitPermissions("exploit/windows/smb/ms17_010_eternalblue"))
	err := e.CheckExploitPermissions("exploit/linux/http/other")
	require.Error(t, err)
}

func TestEngine_AddRule_PriorityOrder(t *testing.T) {
	e := testEngine()
	e.AddRule(&PolicyRule{ID: "low", Priority: 1})
	e.AddRule(&PolicyRule{ID: "high", Priority: 100})

	rules := e.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "high", rules[0].ID)
	assert.Equal(t, "low", rules[1].ID)

	require.NoError(t, e.RemoveRule("high"))
	assert.Len(t, e.Rules(), 1)
}

func TestEngine_RemoveRule_NotFound(t *testing.T) {
	e := testEngine()
	err := e.RemoveRule("nope")
	assert.True(t, errors.Is(err, ErrRuleNotFound))
}
