package seqio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRoundTrip(t *testing.T) {
	ResultDirectory = t.TempDir()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	err := PutResult("tok1", "test", &payload{Name: "a.fasta", Count: 3})
	require.NoError(t, err)

	var got payload
	notready, err := GetResult("tok1", "test", &got)
	require.NoError(t, err)
	assert.False(t, notready)
	assert.Equal(t, "a.fasta", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestResultKeyValuePairs(t *testing.T) {
	ResultDirectory = t.TempDir()

	err := PutResult("tok2", "test", "error", "unable to read input")
	require.NoError(t, err)

	var got struct {
		Error string `json:"error"`
	}
	notready, err := GetResult("tok2", "test", &got)
	require.NoError(t, err)
	assert.False(t, notready)
	assert.Equal(t, "unable to read input", got.Error)
}

func TestResultNotReady(t *testing.T) {
	ResultDirectory = t.TempDir()

	var got struct{}
	notready, err := GetResult("missing", "test", &got)
	assert.True(t, notready)
	assert.Error(t, err)
}
