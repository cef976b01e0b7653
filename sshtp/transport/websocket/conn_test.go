package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T) (url string, conns <-chan *Conn) {
	t.Helper()
	ch := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Upgrade(w, r)
		if err != nil {
			return
		}
		ch <- c
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), ch
}

func TestStreamAcrossMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	url, conns := serve(t)

	client, err := Dial(ctx, url)
	require.NoError(t, err)
	defer client.Close()
	server := <-conns
	defer server.Close()

	for _, part := range []string{"SSH-2.0-", "ws", "\r\n", "tail"} {
		_, err := client.Write([]byte(part))
		require.NoError(t, err)
	}
	buf := make([]byte, 16)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-ws\r\ntail", string(buf))

	// Short reads keep the rest of a message for the next call.
	_, err = server.Write([]byte("abcdef"))
	require.NoError(t, err)
	small := make([]byte, 4)
	n, err := client.Read(small)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(small[:n]))
	n, err = client.Read(small)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(small[:n]))
}

func TestCloseIsEOF(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	url, conns := serve(t)

	client, err := Dial(ctx, url)
	require.NoError(t, err)
	server := <-conns
	defer server.Close()

	require.NoError(t, client.Close())
	_, err = server.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestUpgradeRequiresSubprotocol(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	url, conns := serve(t)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseProtocolError), "got %v", err)
	assert.Empty(t, conns)
}
