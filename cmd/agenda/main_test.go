package main

import (
	"os"
	"path/filepath"
	"testing"

	"agenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("DEBUG", false)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	_, err = newLogger("loud", true)
	assert.Error(t, err)
}

func TestReadProfessionals(t *testing.T) {
	list, err := readProfessionals("")
	require.NoError(t, err)
	assert.Nil(t, list)

	path := filepath.Join(t.TempDir(), "profissionais.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id_profissional: 100-a
  nome: Ana Teste
  status_tratamento: Dra.
  credito: 12.5
`), 0o600))
	list, err = readProfessionals(path)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "100-a", list[0].ID)
	assert.Equal(t, models.Money(1250), list[0].Credit)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o600))
	_, err = readProfessionals(empty)
	assert.Error(t, err)

	_, err = readProfessionals(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["seed"])
	assert.True(t, names["backup"])
	assert.NotNil(t, root.PersistentFlags().Lookup(flagConfig))
}
