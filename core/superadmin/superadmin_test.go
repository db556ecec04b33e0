package superadmin_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/cookie"
	"github.com/dmitrymomot/squadcart/core/credstore"
	"github.com/dmitrymomot/squadcart/core/session"
	"github.com/dmitrymomot/squadcart/core/superadmin"
)

const secret = "superadmin-test-secret-32-chars!"

func newJar(t *testing.T, path string, opts ...cookie.JarOption) *cookie.Jar {
	t.Helper()
	codec, err := cookie.NewCodec([]string{secret})
	require.NoError(t, err)
	jar, err := cookie.NewJar(path, codec, opts...)
	require.NoError(t, err)
	return jar
}

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("enable and disable", func(t *testing.T) {
		t.Parallel()
		gate := superadmin.New(newJar(t, filepath.Join(t.TempDir(), "jar.json")))

		ok, err := gate.Enabled()
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, gate.Enable())
		ok, err = gate.Enabled()
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, gate.Disable())
		ok, err = gate.Enabled()
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, gate.Disable(), "disabling twice is fine")
	})

	t.Run("persists across jars", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "jar.json")
		require.NoError(t, superadmin.New(newJar(t, path)).Enable())

		ok, err := superadmin.New(newJar(t, path)).Enabled()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ignores jar default max-age", func(t *testing.T) {
		t.Parallel()
		now := time.Now()
		jar := newJar(t, filepath.Join(t.TempDir(), "jar.json"),
			cookie.WithDefaults(cookie.WithMaxAge(60)),
			cookie.WithClock(func() time.Time { return now }),
		)
		gate := superadmin.New(jar)
		require.NoError(t, gate.Enable())

		now = now.Add(24 * time.Hour)
		ok, err := gate.Enabled()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("tampered flag reads as disabled with error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "jar.json")
		gate := superadmin.New(newJar(t, path))
		require.NoError(t, gate.Enable())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var records map[string]map[string]any
		require.NoError(t, json.Unmarshal(data, &records))
		records[superadmin.DefaultName]["value"] = "MQ==|Zm9yZ2Vk"
		data, err = json.Marshal(records)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		ok, err := gate.Enabled()
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
		assert.False(t, ok)
	})

	t.Run("independent of session logout", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		jar := newJar(t, filepath.Join(t.TempDir(), "jar.json"))

		gate := superadmin.New(jar)
		store, err := session.New(
			session.WithDurable(credstore.NewCookie(jar)),
			session.WithEphemeral(credstore.NewMemory()),
		)
		require.NoError(t, err)

		require.NoError(t, gate.Enable())
		require.NoError(t, store.Logout(ctx))

		ok, err := gate.Enabled()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("custom name", func(t *testing.T) {
		t.Parallel()
		jar := newJar(t, filepath.Join(t.TempDir(), "jar.json"))
		a := superadmin.New(jar)
		b := superadmin.New(jar, superadmin.WithName("other_flag"))

		require.NoError(t, b.Enable())
		ok, err := a.Enabled()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
