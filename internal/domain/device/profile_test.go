package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"compact", Compact, false},
		{"tablet", Tablet, false},
		{"ios", Compact, false},
		{" Android ", Tablet, false},
		{"watch", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfiles(t *testing.T) {
	compact, ok := Lookup(Compact)
	require.True(t, ok)
	assert.Equal(t, 320, compact.Width)
	assert.Equal(t, 640, compact.Height)
	assert.Equal(t, 40, compact.CornerRadius)
	assert.True(t, compact.Notch)

	tablet, ok := Lookup(Tablet)
	require.True(t, ok)
	assert.Equal(t, 360, tablet.Width)
	assert.Equal(t, 600, tablet.Height)
	assert.Equal(t, 20, tablet.CornerRadius)
	assert.False(t, tablet.Notch)

	for _, k := range Kinds {
		_, ok := Lookup(k)
		assert.True(t, ok, "kind %s has a profile", k)
	}
}

func TestSelector(t *testing.T) {
	s := NewSelector()
	assert.Equal(t, Compact, s.Current().Kind)

	p := s.Select(Tablet)
	assert.Equal(t, Tablet, p.Kind)
	assert.Equal(t, Tablet, s.Current().Kind)

	p = s.Select(Kind("watch"))
	assert.Equal(t, Tablet, p.Kind, "unknown kind keeps the current profile")
}
