package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sirimanoj/finguru/internal/domain/mentor"
)

func TestNew(t *testing.T) {
	_, err := New(context.Background(), "", nil)
	assert.Error(t, err)

	c, err := New(context.Background(), "test-key", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)

	c, err = New(context.Background(), "test-key", nil, WithModel("gemini-2.0-flash"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", c.model)
}

func TestConversation_Roles(t *testing.T) {
	history := []mentor.Turn{
		{Role: "user", Content: "how do I start saving?"},
		{Role: "model", Content: "Pay yourself first."},
	}

	contents := conversation(history, "what about debt?")
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)

	require.Len(t, contents[2].Parts, 1)
	assert.Equal(t, "what about debt?", contents[2].Parts[0].Text)
}
