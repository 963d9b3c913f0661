package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortSequence(t *testing.T) {
	ports := NewPortSequence(1986)
	assert.Equal(t, "1987", ports.Next())
	assert.Equal(t, "1987", ports.Current())
	assert.Equal(t, "1988", ports.Next())
}

func TestPortSequencesAreIndependent(t *testing.T) {
	a := NewPortSequence(100)
	b := NewPortSequence(100)
	a.Next()
	a.Next()
	assert.Equal(t, "101", b.Next())
}

func TestDefaultCatalogueRegisters(t *testing.T) {
	r, err := FromDescriptors(DefaultCatalogue(NewPortSequence(DefaultBasePort)))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"text-statistics",
		"disciplines",
		"topic-assistant-keywords",
		"topic-assistant-embeddings",
		"link-wikipedia",
	}, r.Names())

	keywords, err := r.Lookup("topic-assistant-keywords")
	require.NoError(t, err)
	embeddings, err := r.Lookup("topic-assistant-embeddings")
	require.NoError(t, err)
	assert.Equal(t, "1989", keywords.Port)
	assert.Equal(t, keywords.Port, embeddings.Port, "embeddings share the topic assistant process")
	assert.Zero(t, keywords.BootTimeout, "topic assistant may take as long as it needs")
	assert.False(t, embeddings.Autostart)

	wiki, err := r.Lookup("link-wikipedia")
	require.NoError(t, err)
	assert.Equal(t, "https://wlo.yovisto.com/services/extract", wiki.PostAddress())
	assert.Equal(t, "text", wiki.RawTextField)
}

func TestDefaultCatalogueHonoursBasePort(t *testing.T) {
	ds := DefaultCatalogue(NewPortSequence(5000))
	assert.Equal(t, "5001", ds[0].Port)
	assert.Equal(t, "5002", ds[1].Port)
}
