package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["bienveillance","audace",""]`)))
	assert.Equal(t, StringList{"bienveillance", "audace", ""}, l)
	assert.Equal(t, 2, l.Len())

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)

	assert.Error(t, l.Scan(42))
}

func TestIntMap(t *testing.T) {
	var m IntMap
	require.NoError(t, m.Scan(`{"reel":2,"story":5}`))
	assert.Equal(t, IntMap{"reel": 2, "story": 5}, m)

	v, err := IntMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestJSONDoc(t *testing.T) {
	var d JSONDoc
	require.NoError(t, d.Scan([]byte(`{"score_global":72}`)))

	out, err := json.Marshal(struct {
		Result JSONDoc `json:"result"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"score_global":72}}`, string(out))

	_, err = JSONDoc(`{oops`).Value()
	assert.Error(t, err)

	v, err := JSONDoc(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "null", v)
}
