package respeaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
)

func TestDefaultRegistryShape(t *testing.T) {
	reg := DefaultRegistry()
	require.Equal(t, 40, reg.Len())

	perModule := map[uint16]int{}
	for _, d := range reg.All() {
		perModule[d.Module]++
	}
	assert.Equal(t, map[uint16]int{ModuleAEC: 8, ModuleDSP: 31, ModuleDOA: 1}, perModule)
}

func TestLookupWireFields(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name   string
		module uint16
		offset uint16
		typ    ValueType
		access Access
		max    float64
		min    float64
	}{
		{"AECFREEZEONOFF", 18, 7, Int, ReadWrite, 1, 0},
		{"RT60", 18, 26, Float, ReadOnly, 0.9, 0.25},
		{"AECSILENCELEVEL", 18, 30, Float, ReadWrite, 1, 1e-09},
		{"AGCMAXGAIN", 19, 1, Float, ReadWrite, 1000, 1},
		{"NLAEC_MODE", 19, 20, Int, ReadWrite, 2, 0},
		{"VOICEACTIVITY", 19, 32, Int, ReadOnly, 1, 0},
		{"GAMMAVAD_SR", 19, 39, Float, ReadWrite, 1000, 0},
		{"DOAANGLE", 21, 0, Int, ReadOnly, 359, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.module, d.Module)
			assert.Equal(t, tt.offset, d.Offset)
			assert.Equal(t, tt.typ, d.Type)
			assert.Equal(t, tt.access, d.Access)
			assert.Equal(t, tt.max, d.Max)
			assert.Equal(t, tt.min, d.Min)
			assert.NotEmpty(t, d.Info)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := DefaultRegistry().Lookup("KEYWORDDETECT")
	require.ErrorIs(t, err, domain.ErrUnknownParameter)
}

func TestRegistryOrderAndUniqueness(t *testing.T) {
	reg := DefaultRegistry()
	all := reg.All()
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Module == cur.Module {
			assert.Less(t, prev.Offset, cur.Offset, "%s before %s", prev.Name, cur.Name)
		} else {
			assert.Less(t, prev.Module, cur.Module)
		}
	}
	assert.Len(t, reg.Names(), reg.Len())
	assert.IsNonDecreasing(t, reg.Names())

	_, err := NewRegistry([]Descriptor{{Name: "A"}, {Name: "A"}})
	require.Error(t, err)
}

func TestAllReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()
	all := reg.All()
	all[0].Name = "MUTATED"
	assert.NotEqual(t, "MUTATED", reg.All()[0].Name)
}
