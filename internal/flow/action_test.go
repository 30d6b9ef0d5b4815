package flow

import (
	"errors"
	"testing"

	"github.com/natuspati/jeopardy/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for a := ActionStart; a <= ActionRateAnswer; a++ {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseAction("START")
	var flowErr *rules.GameFlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, "Unsupported action START", flowErr.Reason)
	assert.Equal(t, "Action(0)", Action(0).String())
}

func TestDecodeMessage(t *testing.T) {
	msg, action, err := decodeMessage([]byte(`{"action":"rate_answer","rating":false}`))
	require.NoError(t, err)
	assert.Equal(t, ActionRateAnswer, action)
	require.NotNil(t, msg.Rating)
	assert.False(t, *msg.Rating)
	assert.Equal(t, map[string]interface{}{"rating": false}, msg.payload())

	msg, action, err = decodeMessage([]byte(`{"action":"select_question","prompt_id":17}`))
	require.NoError(t, err)
	assert.Equal(t, ActionSelectQuestion, action)
	assert.Equal(t, 17, *msg.PromptID)

	msg, _, err = decodeMessage([]byte(`{"action":"start"}`))
	require.NoError(t, err)
	assert.Nil(t, msg.payload())

	_, _, err = decodeMessage([]byte(`{"action":"select_question","prompt_id":0}`))
	var flowErr *rules.GameFlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, "Invalid message, prompt_id must be positive", flowErr.Reason)

	_, _, err = decodeMessage([]byte(`[1,2]`))
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, "Invalid JSON format", flowErr.Reason)
}
