package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func writeBSONDump(t *testing.T, path string, docs ...any) {
	t.Helper()

	var buf []byte
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)
		buf = append(buf, raw...)
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestProcessBSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.bson")
	writeBSONDump(t, path,
		MongoPlayer{Name: "ghost", Cash: 100},
		MongoPlayer{Name: "mike", Cash: 200},
	)

	m := &Migrator{}
	var names []string
	err := m.processBSONFile(path, func(doc []byte) error {
		var mp MongoPlayer
		if err := bson.Unmarshal(doc, &mp); err != nil {
			return err
		}
		names = append(names, mp.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost", "mike"}, names)
}

func TestProcessBSONFileMissing(t *testing.T) {
	m := &Migrator{}
	err := m.processBSONFile(filepath.Join(t.TempDir(), "nope.bson"), func([]byte) error {
		t.Fatal("callback should not run for a missing file")
		return nil
	})
	assert.NoError(t, err)
}

func TestProcessBSONFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bson")
	raw, err := bson.Marshal(MongoPlayer{Name: "ghost"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-3], 0o644))

	m := &Migrator{}
	err = m.processBSONFile(path, func([]byte) error { return nil })
	assert.Error(t, err)
}
