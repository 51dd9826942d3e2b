package chain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/config"
)

const (
	sepolia   = uint64(11155111)
	riseChain = uint64(11155931)
	abstract  = uint64(11124)
	zeroG     = uint64(16601)
	somnia    = uint64(50312)
)

func testChains() []Chain {
	return []Chain{
		{ID: sepolia, Name: "Sepolia", Hub: true, LegTime: 90 * time.Second, FinalityDepth: 12, Validators: []string{
			"0x1111111111111111111111111111111111111111",
			"0x2222222222222222222222222222222222222222",
			"0x3333333333333333333333333333333333333333",
		}},
		{ID: riseChain, Name: "RiseChain", LegTime: 10 * time.Second, FinalityDepth: 1},
		{ID: abstract, Name: "Abstract", LegTime: 60 * time.Second, FinalityDepth: 1},
		{ID: zeroG, Name: "0G", LegTime: 120 * time.Second, FinalityDepth: 1},
		{ID: somnia, Name: "Somnia", LegTime: 30 * time.Second, FinalityDepth: 1},
	}
}

func testLinks() []Link {
	return []Link{{riseChain, abstract}, {riseChain, zeroG}, {somnia, abstract}}
}

func TestNewRegistry_LinksAndHub(t *testing.T) {
	r, err := NewRegistry(testChains(), testLinks())
	require.NoError(t, err)

	hub, ok := r.Hub()
	require.True(t, ok)
	require.Equal(t, sepolia, hub.ID)

	require.True(t, r.Linked(riseChain, abstract))
	require.True(t, r.Linked(abstract, riseChain), "links are bidirectional")
	require.True(t, r.Linked(zeroG, sepolia), "hub links to every chain")
	require.False(t, r.Linked(zeroG, somnia))
	require.False(t, r.Linked(riseChain, riseChain))

	require.Equal(t, []uint64{abstract, zeroG, sepolia}, r.Neighbors(riseChain))
}

func TestRegistry_ListKeepsConfigurationOrder(t *testing.T) {
	r, err := NewRegistry(testChains(), nil)
	require.NoError(t, err)

	var ids []uint64
	for _, c := range r.List() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []uint64{sepolia, riseChain, abstract, zeroG, somnia}, ids)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, err := NewRegistry(testChains(), nil)
	require.NoError(t, err)

	_, err = r.Get(1)
	require.True(t, errors.Is(err, bridge.ErrUnsupportedChain))
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r, err := NewRegistry(testChains(), nil)
	require.NoError(t, err)

	c, err := r.Get(sepolia)
	require.NoError(t, err)
	c.Validators[0] = "0xdead"

	validators, quorum, err := r.Validators(sepolia)
	require.NoError(t, err)
	require.Equal(t, "0x1111111111111111111111111111111111111111", validators[0])
	require.Equal(t, 2, quorum, "default quorum is ceil(2/3 of 3)")
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		chains func() []Chain
		links  []Link
	}{
		{
			name: "duplicate id",
			chains: func() []Chain {
				return append(testChains(), Chain{ID: sepolia, Name: "again"})
			},
		},
		{
			name: "two hubs",
			chains: func() []Chain {
				c := testChains()
				c[1].Hub = true
				return c
			},
		},
		{
			name: "quorum above validator count",
			chains: func() []Chain {
				c := testChains()
				c[0].Quorum = 4
				return c
			},
		},
		{
			name:   "link to unknown chain",
			chains: testChains,
			links:  []Link{{riseChain, 42}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.chains(), tt.links)
			require.Error(t, err)
		})
	}
}

func TestDefaultQuorum(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 6: 4, 7: 5}
	for n, want := range cases {
		require.Equal(t, want, DefaultQuorum(n), "n=%d", n)
	}
}

func TestIsValidator_CaseInsensitive(t *testing.T) {
	r, err := NewRegistry(testChains(), nil)
	require.NoError(t, err)

	require.True(t, r.IsValidator(sepolia, "0x2222222222222222222222222222222222222222"))
	require.False(t, r.IsValidator(riseChain, "0x2222222222222222222222222222222222222222"))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Chains: []config.ChainConfig{
			{ID: sepolia, Name: "Sepolia", Hub: true, LegTime: 90 * time.Second, FinalityDepth: 12},
			{ID: riseChain, Name: "RiseChain", LegTime: 10 * time.Second, FinalityDepth: 1},
		},
		Links: []config.LinkConfig{{From: riseChain, To: sepolia}},
	}

	r, err := FromConfig(cfg)
	require.NoError(t, err)
	c, err := r.Get(riseChain)
	require.NoError(t, err)
	require.Equal(t, int64(10), c.LegSeconds())
	require.True(t, r.Linked(riseChain, sepolia))
}
