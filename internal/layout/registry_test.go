package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/monarrange/internal/platform"
)

func handles(outputs []*Output) []platform.OutputID {
	ids := make([]platform.OutputID, 0, len(outputs))
	for _, o := range outputs {
		ids = append(ids, o.Handle)
	}
	return ids
}

func TestRegistryUpsertReplacesFingerprint(t *testing.T) {
	r := NewRegistry()
	r.Upsert(&Output{Handle: 1, Fingerprint: "aa"})
	r.Upsert(&Output{Handle: 2, Fingerprint: "bb"})
	r.Upsert(&Output{Handle: 3, Fingerprint: "cc"})

	removed := r.Upsert(&Output{Handle: 4, Fingerprint: "bb"})

	assert.Equal(t, []platform.OutputID{2}, removed)
	assert.Equal(t, []platform.OutputID{1, 3, 4}, handles(r.Outputs()))
}

func TestRegistryEmptyFingerprintNeverMatches(t *testing.T) {
	r := NewRegistry()
	r.Upsert(&Output{Handle: 1})
	removed := r.Upsert(&Output{Handle: 2})

	assert.Empty(t, removed)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryUpsertSameHandle(t *testing.T) {
	r := NewRegistry()
	r.Upsert(&Output{Handle: 1, Name: "old"})
	r.Upsert(&Output{Handle: 2})
	removed := r.Upsert(&Output{Handle: 1, Name: "new"})

	assert.Equal(t, []platform.OutputID{1}, removed)
	assert.Equal(t, []platform.OutputID{2, 1}, handles(r.Outputs()))
	assert.Equal(t, "new", r.Find(1).Name)
}

func TestRegistryReconnectUnderNewHandle(t *testing.T) {
	r := NewRegistry()
	first := &Output{Handle: 10, Fingerprint: "edid", Enabled: false, Mode: 7}
	r.Upsert(first)
	require.True(t, r.Remove(10))

	fresh := &Output{Handle: 11, Fingerprint: "edid", Enabled: true, Mode: 1}
	r.Upsert(fresh)

	var count int
	for _, o := range r.Outputs() {
		if o.Fingerprint == "edid" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	got := r.Find(11)
	require.NotNil(t, got)
	assert.True(t, got.Enabled, "preferences are not carried across reconnect")
	assert.Equal(t, platform.ModeID(1), got.Mode)
	assert.Nil(t, r.Find(10))
}

func TestRegistryRemoveAndFind(t *testing.T) {
	r := NewRegistry()
	r.Upsert(&Output{Handle: 1, Name: "DP-1"})
	r.Upsert(&Output{Handle: 2, Name: "HDMI-1"})

	assert.False(t, r.Remove(3))
	assert.True(t, r.Remove(1))
	assert.Nil(t, r.Find(1))
	assert.Nil(t, r.FindByName("DP-1"))
	assert.Equal(t, platform.OutputID(2), r.FindByName("HDMI-1").Handle)
}

func TestRegistryReference(t *testing.T) {
	r := NewRegistry()
	r.Upsert(&Output{Handle: 1, Enabled: true, Connected: true})
	r.Upsert(&Output{Handle: 2, Enabled: false, Connected: true, Channel: 5})
	r.Upsert(&Output{Handle: 3, Enabled: true, Connected: true, Channel: 6})
	r.Upsert(&Output{Handle: 4, Enabled: true, Connected: true, Channel: 7})

	require.NotNil(t, r.Reference())
	assert.Equal(t, platform.OutputID(3), r.Reference().Handle)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "", Fingerprint(nil))
	a := Fingerprint([]byte{0x00, 0xff, 0xff, 0xff})
	b := Fingerprint([]byte{0x00, 0xff, 0xff, 0xfe})
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint([]byte{0x00, 0xff, 0xff, 0xff}))
}
