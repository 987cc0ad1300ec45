package identifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
)

func strPtr(s string) *string { return &s }

func TestContextEqualityAndString(t *testing.T) {
	a := identifier.Context{Type: "Environment", Name: "production"}
	b := identifier.Context{Type: "Environment", Name: "production"}
	c := identifier.Context{Type: "Command", Name: "production"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "Environment:production", a.String())
}

func TestContextsDeduplicateOnAdd(t *testing.T) {
	var cs identifier.Contexts
	cs.Add(identifier.Context{Type: "Environment", Name: "prod"})
	cs.Add(identifier.Context{Type: "Environment", Name: "prod"})
	cs.Add(identifier.Context{Type: "Command", Name: "apply"})

	assert.Equal(t, 2, cs.Len())
}

func TestContextsIsEmptyDistinguishesUnscoped(t *testing.T) {
	var cs identifier.Contexts
	assert.True(t, cs.IsEmpty())
	cs.Add(identifier.Context{Type: "Command", Name: "apply"})
	assert.False(t, cs.IsEmpty())
}

func TestIdentifierUniqueIDIsDeterministic(t *testing.T) {
	id1 := identifier.New(identifier.TypeLabel, "tier", strPtr("backend"))
	id2 := identifier.New(identifier.TypeLabel, "tier", strPtr("backend"))
	id3 := identifier.New(identifier.TypeLabel, "tier", strPtr("frontend"))

	assert.Equal(t, id1.UniqueID(), id2.UniqueID())
	assert.NotEqual(t, id1.UniqueID(), id3.UniqueID())
}

func TestIdentifiersAddDeduplicatesByUniqueID(t *testing.T) {
	ids := identifier.NewIdentifiers()
	ids.Add(identifier.New(identifier.TypeManifestName, "t1", nil))
	ids.Add(identifier.New(identifier.TypeManifestName, "t1", nil))

	require.Equal(t, 1, ids.Len())
}

func TestIdentifierEqualitySymmetricAndReflexive(t *testing.T) {
	a := identifier.New(identifier.TypeLabel, "tier", strPtr("backend"))
	b := identifier.New(identifier.TypeLabel, "tier", strPtr("backend"))

	assert.True(t, a.Equal(a))
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func TestIdentifierEqualityRequiresSharedContextWhenBothScoped(t *testing.T) {
	prodCtx := identifier.NewContexts(identifier.Context{Type: "Environment", Name: "prod"})
	testCtx := identifier.NewContexts(identifier.Context{Type: "Environment", Name: "test"})

	a := identifier.NewContextual(identifier.TypeExecutionScope, "processing", nil, prodCtx)
	b := identifier.NewContextual(identifier.TypeExecutionScope, "processing", nil, testCtx)

	assert.False(t, a.Equal(b))
}

func TestMatchesAnyContextUnscopedAlwaysMatches(t *testing.T) {
	id := identifier.New(identifier.TypeManifestName, "t1", nil)
	target := identifier.NewContexts(identifier.Context{Type: "Environment", Name: "prod"})

	assert.True(t, id.MatchesAnyContext(identifier.TypeManifestName, "t1", nil, target))
}

func TestBuildCommandIdentifierShape(t *testing.T) {
	target := identifier.BuildCommandIdentifier("apply", "production")

	assert.Equal(t, identifier.TypeExecutionScope, target.Type)
	assert.Equal(t, "processing", target.Key)
	assert.Equal(t, 2, target.Contexts.Len())
	assert.True(t, target.Contexts.Contains(identifier.Context{Type: "Command", Name: "apply"}))
	assert.True(t, target.Contexts.Contains(identifier.Context{Type: "Environment", Name: "production"}))
}
