package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/persistence/middleware"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, cfg middleware.EncryptionConfig, next ports.SnapshotStore) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryption(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryption_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, memory.NewStore()))
}

func TestEncryption_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)

	ctx := context.Background()
	require.NoError(t, secure.Save(ctx, "s1", testutils.SaveScenarioDoc()))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Graph.States, "states must not be stored in the clear")
	assert.Contains(t, stored.Metadata, middleware.EnvelopeKey)

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded.Graph.States, 3)
	assert.Equal(t, "save_modal_open", loaded.Graph.States[1].ID)
}

func TestEncryption_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey}, underlying)
	require.NoError(t, secureOld.Save(ctx, "rotation", testutils.SaveScenarioDoc()))

	secureNew := encrypted(t, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}}, underlying)
	doc, err := secureNew.Load(ctx, "rotation")
	require.NoError(t, err, "fallback key decrypts old snapshots")

	require.NoError(t, secureNew.Save(ctx, "rotation", doc))
	_, err = secureOld.Load(ctx, "rotation")
	assert.Error(t, err, "old key alone cannot read snapshots sealed with the new key")
}

func TestEncryption_RefusesPlainSnapshots(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", testutils.SaveScenarioDoc()))

	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryption_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{{1}}})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
