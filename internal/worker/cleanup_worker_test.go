package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/amqp"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/media"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/storage"
)

func newWorker(t *testing.T) (*CleanupWorker, *storage.Repository, *media.Store, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	mediaDir := filepath.Join(dir, "media")
	store, err := media.NewStore(mediaDir)
	require.NoError(t, err)

	logger := log.New(log.DefaultConfig())
	return NewCleanupWorker(repo, store, logger), repo, store, mediaDir
}

func saveImage(t *testing.T, store *media.Store) string {
	t.Helper()
	name, err := store.Save(strings.NewReader("fake-png"), "photo.png")
	require.NoError(t, err)
	return name
}

func TestHandleCleanupMessage(t *testing.T) {
	w, _, _, mediaDir := newWorker(t)
	ctx := context.Background()

	name := saveImage(t, w.store)
	require.FileExists(t, filepath.Join(mediaDir, name))

	msg := amqp.NewImageCleanupMessage(name, 1)
	require.NoError(t, w.HandleCleanupMessage(ctx, msg))
	assert.NoFileExists(t, filepath.Join(mediaDir, name))

	// Redelivery of the same message is a no-op.
	require.NoError(t, w.HandleCleanupMessage(ctx, msg))
}

func TestSweepOrphans(t *testing.T) {
	w, repo, store, mediaDir := newWorker(t)
	ctx := context.Background()

	userID, err := repo.CreateUser(ctx, core.User{Email: "u@example.com", Name: "U", PasswordHash: "x"})
	require.NoError(t, err)
	batchID, err := repo.CreateBatch(ctx, core.Batch{UserID: userID, Name: "Lote", IsActive: true})
	require.NoError(t, err)

	kept := saveImage(t, store)
	orphan := saveImage(t, store)
	_, err = repo.SetBatchImage(ctx, userID, batchID, kept)
	require.NoError(t, err)

	require.NoError(t, w.SweepOrphans(ctx))

	assert.FileExists(t, filepath.Join(mediaDir, kept))
	assert.NoFileExists(t, filepath.Join(mediaDir, orphan))

	entries, err := os.ReadDir(mediaDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
