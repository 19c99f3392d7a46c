package carrier_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/mock"
)

func TestRegistry_Register(t *testing.T) {
	registry := carrier.NewRegistry()

	require.NoError(t, registry.Register(mock.New("test-carrier")))

	got, err := registry.Get("test-carrier")
	require.NoError(t, err, "carrier should be registered")
	assert.Equal(t, "test-carrier", got.ID())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := carrier.NewRegistry()

	first := mock.New("ups")
	require.NoError(t, registry.Register(first))

	err := registry.Register(mock.New("ups"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, carrier.ErrDuplicateCarrier))
	assert.Contains(t, err.Error(), `"ups"`)
	assert.Equal(t, 1, registry.Count())

	got, err := registry.Get("ups")
	require.NoError(t, err)
	assert.Same(t, first, got, "first registration should remain active")
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := carrier.NewRegistry()

	_, err := registry.Get("dhl")
	require.Error(t, err, "should return error for unregistered carrier")
	assert.True(t, errors.Is(err, carrier.ErrCarrierNotFound))
	assert.Contains(t, err.Error(), "dhl")
}

func TestRegistry_Get_CaseSensitive(t *testing.T) {
	registry := carrier.NewRegistry()
	require.NoError(t, registry.Register(mock.New("ups")))

	assert.True(t, registry.Has("ups"))
	assert.False(t, registry.Has("UPS"))
}

func TestRegistry_Has(t *testing.T) {
	registry := carrier.NewRegistry()
	assert.False(t, registry.Has("ups"))

	require.NoError(t, registry.Register(mock.New("ups")))
	assert.True(t, registry.Has("ups"))
}

func TestRegistry_All_RegistrationOrder(t *testing.T) {
	registry := carrier.NewRegistry()

	for _, id := range []string{"ups", "fedex", "dhl"} {
		require.NoError(t, registry.Register(mock.New(id)))
	}

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "ups", all[0].ID())
	assert.Equal(t, "fedex", all[1].ID())
	assert.Equal(t, "dhl", all[2].ID())
	assert.Equal(t, []string{"ups", "fedex", "dhl"}, registry.IDs())
}

func TestRegistry_Count(t *testing.T) {
	registry := carrier.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	require.NoError(t, registry.Register(mock.New("carrier-a")))
	assert.Equal(t, 1, registry.Count())

	require.NoError(t, registry.Register(mock.New("carrier-b")))
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	registry := carrier.NewRegistry()
	require.NoError(t, registry.Register(mock.New("ups")))
	require.NoError(t, registry.Register(mock.New("fedex")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := registry.Get("ups")
			assert.NoError(t, err)
			assert.Equal(t, "ups", c.ID())
			assert.Len(t, registry.All(), 2)
		}()
	}
	wg.Wait()
}
