package condition_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/cadence/condition"
	"github.com/teranos/cadence/flow"
)

type stubDeclaration struct {
	id       string
	disabled bool
}

func (s stubDeclaration) ID() string    { return s.id }
func (s stubDeclaration) Disabled() bool { return s.disabled }

func TestAlwaysValid(t *testing.T) {
	ok := condition.AlwaysValid.IsValid(context.Background(), stubDeclaration{id: "t1"}, flow.Flow{})
	assert.True(t, ok)
}

func TestNotDisabled_RejectsDisabledDeclaration(t *testing.T) {
	eval := condition.NotDisabled(condition.AlwaysValid)
	ok := eval.IsValid(context.Background(), stubDeclaration{id: "t1", disabled: true}, flow.Flow{})
	assert.False(t, ok)
}

func TestNotDisabled_DefersToNext(t *testing.T) {
	eval := condition.NotDisabled(condition.Predicate(func(context.Context, flow.TriggerDeclaration, flow.Flow) bool {
		return false
	}))
	ok := eval.IsValid(context.Background(), stubDeclaration{id: "t1"}, flow.Flow{})
	assert.False(t, ok)
}

func TestNotDisabled_NilNextAdmits(t *testing.T) {
	eval := condition.NotDisabled(nil)
	ok := eval.IsValid(context.Background(), stubDeclaration{id: "t1"}, flow.Flow{})
	assert.True(t, ok)
}
