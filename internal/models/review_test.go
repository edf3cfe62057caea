package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawReview_DecodesCatalogPayload(t *testing.T) {
	payload := `{"content":"love it","reviewId":"r1","userName":"ana","score":5,"at":"2024-03-01T10:00:00Z"}`

	var r RawReview
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	assert.Equal(t, "love it", r.Content)
	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), r.At.UTC())
}

func TestRawReview_MissingTimestampIsZero(t *testing.T) {
	var r RawReview
	require.NoError(t, json.Unmarshal([]byte(`{"content":"ok"}`), &r))
	assert.True(t, r.At.IsZero())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"at":"0001-01-01T00:00:00Z"`)
}
