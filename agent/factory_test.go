package agent

import (
	"testing"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Types(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, []core.AgentType{
		core.AgentContentIntegration,
		core.AgentContentStructure,
		core.AgentDocumentAnalysis,
		core.AgentOutlineGeneration,
		core.AgentSectionWriting,
	}, f.Types())
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory()
	m := model.NewMockModel("m", "mock")

	a, err := f.Create(core.AgentOutlineGeneration, "id-1", "Outliner", m)
	require.NoError(t, err)
	assert.Equal(t, "id-1", a.ID())
	assert.Equal(t, "Outliner", a.Name())
	assert.Equal(t, core.AgentOutlineGeneration, a.Type())
	assert.IsType(t, &OutlineGenerationAgent{}, a)

	a, err = f.Create(core.AgentDocumentAnalysis, "", "", m)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())

	_, err = f.Create("Translation", "", "", m)
	assert.ErrorIs(t, err, core.ErrUnknownAgentType)

	_, err = f.Create(core.AgentDocumentAnalysis, "", "", nil)
	assert.Error(t, err)
}

func TestFactory_Register(t *testing.T) {
	f := NewFactory()
	assert.Error(t, f.register("", func(Config) core.Agent { return nil }))
	assert.Error(t, f.register("X", nil))
	assert.Error(t, f.register(core.AgentSectionWriting, func(cfg Config) core.Agent { return NewSectionWritingAgent(cfg) }))
	assert.NoError(t, f.register("X", func(cfg Config) core.Agent { return NewSectionWritingAgent(cfg) }))
}

func TestFactory_PromptsAndOverrides(t *testing.T) {
	called := false
	f := NewFactory(func(o *FactoryOptions) {
		o.Prompts = map[core.AgentType]string{core.AgentSectionWriting: "Write briefly."}
		o.Overrides = map[core.AgentType]Constructor{
			core.AgentContentIntegration: func(cfg Config) core.Agent {
				called = true
				return NewContentIntegrationAgent(cfg)
			},
		}
	})
	m := model.NewMockModel("m", "mock")

	w, err := Resolve[core.SectionWriter](f, core.AgentSectionWriting, "", "", m)
	require.NoError(t, err)
	assert.Equal(t, "Write briefly.", w.(*SectionWritingAgent).instruction.text)

	_, err = f.Create(core.AgentContentIntegration, "", "", m)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestResolve_CapabilityMismatch(t *testing.T) {
	f := NewFactory()
	m := model.NewMockModel("m", "mock")

	gen, err := Resolve[core.OutlineGenerator](f, core.AgentOutlineGeneration, "", "", m)
	require.NoError(t, err)
	assert.NotNil(t, gen)

	_, err = Resolve[core.OutlineGenerator](f, core.AgentDocumentAnalysis, "", "", m)
	assert.ErrorIs(t, err, core.ErrCapabilityMismatch)

	_, err = Resolve[core.OutlineGenerator](f, "Nope", "", "", m)
	assert.ErrorIs(t, err, core.ErrUnknownAgentType)
}

func TestParseAgentType(t *testing.T) {
	got, err := ParseAgentType("outlinegeneration")
	require.NoError(t, err)
	assert.Equal(t, core.AgentOutlineGeneration, got)

	_, err = ParseAgentType("chat")
	assert.ErrorIs(t, err, core.ErrUnknownAgentType)
}
