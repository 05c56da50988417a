package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "teesheet:open:2025-07-01", Key(time.Date(2025, 7, 1, 15, 4, 0, 0, time.UTC)))
}

func TestGenerationKey(t *testing.T) {
	assert.Equal(t, "teesheet:gen:2025-07-01", GenerationKey(time.Date(2025, 7, 1, 23, 59, 0, 0, time.UTC)))
	assert.NotEqual(t, Key(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)), GenerationKey(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEncodeSlots(t *testing.T) {
	slots := []model.Slot{
		{Start: model.Clock(6, 0), End: model.Clock(6, 8)},
		{Start: model.Clock(19, 52), End: model.Clock(20, 0)},
	}

	data, err := EncodeSlots(slots)
	require.NoError(t, err)
	assert.JSONEq(t, `["06:00-06:08","19:52-20:00"]`, string(data))

	decoded, err := DecodeSlots(data)
	require.NoError(t, err)
	assert.Equal(t, slots, decoded)
}

func TestEncodeSlots_Empty(t *testing.T) {
	data, err := EncodeSlots(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	decoded, err := DecodeSlots(data)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeSlots_Malformed(t *testing.T) {
	_, err := DecodeSlots([]byte(`["06:00"]`))
	assert.Error(t, err)

	_, err = DecodeSlots([]byte(`["06:00-xx:08"]`))
	assert.Error(t, err)

	_, err = DecodeSlots([]byte(`not json`))
	assert.Error(t, err)
}
