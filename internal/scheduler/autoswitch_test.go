package scheduler

import (
	"testing"

	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestShouldAutoSwitch(t *testing.T) {
	manual := testutil.NewTestWorkItem("succ")
	auto := testutil.NewTestWorkItem("succ", testutil.Automatic())

	tests := []struct {
		name string
		ctx  SwitchContext
		want bool
	}{
		{"first relation on create", SwitchContext{Creating: true, Successor: manual}, true},
		{"update never switches", SwitchContext{Creating: false, Successor: manual}, false},
		{"successor with children", SwitchContext{Creating: true, Successor: manual, SuccessorHasChildren: true}, false},
		{"second relation from same predecessor", SwitchContext{Creating: true, Successor: manual, ExistingFromPredecessor: 1}, false},
		{"already automatic", SwitchContext{Creating: true, Successor: auto}, false},
		{"no successor", SwitchContext{Creating: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAutoSwitch(tt.ctx))
		})
	}
}
