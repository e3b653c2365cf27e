package measure

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnitCachesNamesOnly(t *testing.T) {
	r, err := NewRegistry(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer r.Close()

	for _, name := range []string{"km/h", "kW*h/mile", "m^2", "km", "hours"} {
		_, err := r.GetUnit(name)
		require.NoError(t, err)
	}
	_, err = r.GetUnit("parsec")
	require.Error(t, err)

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	assert.Len(t, r.cache, 2)
	assert.Contains(t, r.cache, "km")
	assert.Contains(t, r.cache, "hours")
}
