package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDispatchingTogglesBatchBindings(t *testing.T) {
	k := DefaultKeyMap()

	k.SetDispatching(true)
	assert.False(t, k.New.Enabled())
	assert.False(t, k.Delete.Enabled())
	assert.False(t, k.Clear.Enabled())
	assert.False(t, k.Upload.Enabled())
	assert.False(t, k.Reload.Enabled())
	assert.True(t, k.Quit.Enabled())
	assert.True(t, k.History.Enabled())

	k.SetDispatching(false)
	assert.True(t, k.Upload.Enabled())
	assert.True(t, k.Clear.Enabled())
}

func TestFullHelpCoversBatchActions(t *testing.T) {
	k := DefaultKeyMap()

	var helps []string
	for _, group := range k.FullHelp() {
		for _, b := range group {
			helps = append(helps, b.Help().Key)
		}
	}
	assert.Subset(t, helps, []string{"n", "d", "C", "u", "h", "r", "?", ":"})
}
