package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsInvalidName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Descriptor{Name: "bad name"})
	assert.Error(t, err)
}

func TestRegisterGetRoundTrips(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "nmap-scan", Category: "recon", SideEffects: []SideEffect{SideEffectNetwork}}))

	d, ok := r.Get("nmap-scan")
	require.True(t, ok)
	assert.Equal(t, "recon", d.Category)
}

func TestListFiltersByCategoryAndSortsByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "zzz-tool", Category: "recon"}))
	require.NoError(t, r.Register(Descriptor{Name: "aaa-tool", Category: "recon"}))
	require.NoError(t, r.Register(Descriptor{Name: "other-tool", Category: "exploit"}))

	recon := r.List("recon")
	require.Len(t, recon, 2)
	assert.Equal(t, "aaa-tool", recon[0].Name)
	assert.Equal(t, "zzz-tool", recon[1].Name)

	all := r.List("")
	assert.Len(t, all, 3)
}
