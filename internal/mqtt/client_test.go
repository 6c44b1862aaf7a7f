package mqtt

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdview/internal/errors"
)

const publicBroker = "test.mosquitto.org:1883"

func isMosquittoTestServerAvailable() bool {
	conn, err := net.DialTimeout("tcp", publicBroker, 5*time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func testConfig(broker string) Config {
	cfg := DefaultConfig()
	cfg.Broker = broker
	cfg.ClientID = "birdview-test-" + time.Now().Format("150405.000")
	cfg.ReconnectCooldown = 0
	cfg.ConnectTimeout = 5 * time.Second
	return cfg
}

func TestClientRejectsInvalidBroker(t *testing.T) {
	t.Parallel()

	c := NewClient(testConfig("not a url"), testLogger())
	err := c.Connect(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.False(t, c.IsConnected())
}

func TestClientUnresolvableHost(t *testing.T) {
	t.Parallel()

	c := NewClient(testConfig("tcp://unresolvable.invalid:1883"), testLogger())
	err := c.Connect(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestClientConnectCooldown(t *testing.T) {
	t.Parallel()

	cfg := testConfig("not a url")
	cfg.ReconnectCooldown = time.Hour
	c := NewClient(cfg, testLogger())

	require.Error(t, c.Connect(t.Context()))
	err := c.Connect(t.Context())
	require.ErrorContains(t, err, "too recent")
}

func TestClientPublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	c := NewClient(testConfig("tcp://127.0.0.1:1883"), testLogger())
	err := c.Publish(t.Context(), "birdview/test", []byte("{}"))
	require.ErrorContains(t, err, "not connected")
	c.Disconnect()
}

func TestClientRefusedConnection(t *testing.T) {
	t.Parallel()

	// grab a free port and close it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewClient(testConfig("tcp://"+addr), testLogger())
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	err = c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.False(t, c.IsConnected())
}

func TestClientPublicBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("network test")
	}
	if !isMosquittoTestServerAvailable() {
		t.Skip("Skipping MQTT tests: test.mosquitto.org is not available")
	}

	c := NewClient(testConfig("tcp://"+publicBroker), testLogger())
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Publish(ctx, "birdview/test/loaded", []byte(`{"kind":"loaded"}`)))

	c.Disconnect()
	assert.False(t, c.IsConnected())
}
