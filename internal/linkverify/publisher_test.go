package linkverify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
)

func embeddedNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Port: -1})
	require.NoError(t, err)
	ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(5*time.Second))
	return ns.ClientURL()
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := embeddedNATS(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("test.broken", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := NewPublisher(config.NATSConfig{URL: url, Subject: "test.broken"})
	require.NoError(t, err)
	require.IsType(t, &NATSPublisher{}, p)

	event := NewBrokenLinkEvent("run-9", "index.html", "/", "https://gone.example/", 0, "request failed", false)
	require.NoError(t, p.PublishBrokenLink(context.Background(), event))
	require.NoError(t, p.Close())

	select {
	case m := <-msgs:
		var got BrokenLinkEvent
		require.NoError(t, json.Unmarshal(m.Data, &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, "run-9", got.RunID)
		assert.Equal(t, "https://gone.example/", got.URL)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	p, err := NewNATSPublisher(config.NATSConfig{URL: embeddedNATS(t), Subject: "x"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishBrokenLink(ctx, &BrokenLinkEvent{}), context.Canceled)
}
