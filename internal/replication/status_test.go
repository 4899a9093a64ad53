package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_ErrNilForOkAndWarnings(t *testing.T) {
	assert.Nil(t, OK.Err())
	assert.Nil(t, WarnHandlerReplaced.Err())
	assert.NotNil(t, ErrInvalidEntity.Err())
}

func TestStatus_IsError(t *testing.T) {
	assert.False(t, OK.IsError())
	assert.False(t, WarnHandlerEmpty.IsError())
	assert.True(t, ErrEntityForeign.IsError())
}

func TestStatus_StringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "entity untracked", ErrEntityUntracked.String())
	assert.Contains(t, Status(-999).String(), "-999")
}
