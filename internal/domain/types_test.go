package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperformIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SuperformID
	}{
		{"string form", `"62771017356169834684714000"`, "62771017356169834684714000"},
		{"numeric form", `62771017356169834684714000`, "62771017356169834684714000"},
		{"small number", `42`, "42"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id SuperformID
			err := json.Unmarshal([]byte(tt.raw), &id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestSuperformIDUnmarshalInvalid(t *testing.T) {
	var id SuperformID
	err := json.Unmarshal([]byte(`{"nested":1}`), &id)
	assert.Error(t, err)
}

func TestVaultSummaryDecode(t *testing.T) {
	payload := `{
		"id": "vL7k-5ZgYCoFgi6kz2jIJ",
		"superform_id": "12345",
		"friendly_name": "SuperUSDC",
		"contract_address": "0xabc0000000000000000000000000000000000001",
		"chain": {"id": 1, "name": "Ethereum"},
		"protocol": {"name": "Morpho", "graphics": {"icon": "https://cdn/morpho.png"}},
		"yield_type": "Lending",
		"external_url": "https://morpho.org",
		"vault_statistics": {"tvl_now": 1500000.5, "apy_now": 4.2, "price_per_share": 1.01}
	}`

	var v VaultSummary
	require.NoError(t, json.Unmarshal([]byte(payload), &v))

	assert.Equal(t, "vL7k-5ZgYCoFgi6kz2jIJ", v.ID)
	assert.Equal(t, SuperformID("12345"), v.SuperformID)
	assert.Equal(t, "SuperUSDC", v.FriendlyName)
	assert.Equal(t, 1, v.Chain.ID)
	assert.Equal(t, "Morpho", v.Protocol.Name)
	assert.Equal(t, "https://cdn/morpho.png", v.Protocol.Graphics.Icon)
	assert.InDelta(t, 1500000.5, v.Statistics.TVLNow, 1e-9)
	assert.InDelta(t, 4.2, v.Statistics.APYNow, 1e-9)
}

func TestSortByAllocation(t *testing.T) {
	entry := func(id string, pct float64) SubVaultEntry {
		return SubVaultEntry{
			Summary:    VaultSummary{SuperformID: SuperformID(id)},
			Allocation: AllocationEntry{SuperformID: SuperformID(id), Percentage: pct},
		}
	}

	t.Run("descending order", func(t *testing.T) {
		entries := []SubVaultEntry{entry("a", 30), entry("b", 70)}
		SortByAllocation(entries)

		assert.Equal(t, SuperformID("b"), entries[0].Allocation.SuperformID)
		assert.InDelta(t, 70.0, entries[0].Allocation.Percentage, 1e-9)
		assert.Equal(t, SuperformID("a"), entries[1].Allocation.SuperformID)
	})

	t.Run("ties keep discovery order", func(t *testing.T) {
		entries := []SubVaultEntry{
			entry("first", 25), entry("second", 25), entry("third", 50), entry("fourth", 25),
		}
		SortByAllocation(entries)

		assert.Equal(t, SuperformID("third"), entries[0].Allocation.SuperformID)
		assert.Equal(t, SuperformID("first"), entries[1].Allocation.SuperformID)
		assert.Equal(t, SuperformID("second"), entries[2].Allocation.SuperformID)
		assert.Equal(t, SuperformID("fourth"), entries[3].Allocation.SuperformID)
	})

	t.Run("zero allocations sort last and stay displayed", func(t *testing.T) {
		entries := []SubVaultEntry{entry("idle", 0), entry("active", 10)}
		SortByAllocation(entries)

		assert.Equal(t, SuperformID("active"), entries[0].Allocation.SuperformID)
		assert.True(t, entries[1].Inactive())
		assert.False(t, entries[0].Inactive())
		assert.Len(t, entries, 2)
	})
}
