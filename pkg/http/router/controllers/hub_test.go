package controllers

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/Pathviz/pkg/engine/search"
	"github.com/lintang-b-s/Pathviz/pkg/http/usecases"
	"github.com/lintang-b-s/Pathviz/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type streamMessage struct {
	Data  *sessionResponse `json:"data"`
	Frame *sessionResponse `json:"frame"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newStreamUser(t *testing.T) (*Hub, *User, net.Conn, string) {
	t.Helper()
	svc, err := usecases.NewSessionService(zap.NewNop(), 4, render.NewRenderer(10), 0)
	require.NoError(t, err)
	session, _, err := svc.CreateSession(usecases.CreateSessionParams{Algorithm: search.DIJKSTRA, Rows: 4, Cols: 4})
	require.NoError(t, err)

	server, client := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	hub := NewHub(nil, svc, zap.NewNop())
	return hub, hub.Register(server), client, session.ID()
}

// exchange sends one command and reads messages until the final data or error message.
func exchange(t *testing.T, user *User, client net.Conn, request string) []streamMessage {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- user.Serve(context.Background())
	}()
	require.NoError(t, wsutil.WriteClientText(client, []byte(request)))

	msgs := make([]streamMessage, 0)
	for {
		payload, err := wsutil.ReadServerText(client)
		require.NoError(t, err)
		var msg streamMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		msgs = append(msgs, msg)
		if msg.Frame == nil {
			break
		}
	}
	require.NoError(t, <-errc)
	return msgs
}

func TestUserServe(t *testing.T) {
	_, user, client, id := newStreamUser(t)

	msgs := exchange(t, user, client, `{"session_id":"`+id+`","action":"step","count":2}`)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Data)
	assert.Equal(t, 2, msgs[0].Data.Steps)

	msgs = exchange(t, user, client, `{"session_id":"`+id+`","action":"run"}`)
	require.Greater(t, len(msgs), 1)
	last := msgs[len(msgs)-1]
	require.NotNil(t, last.Data)
	assert.Equal(t, "success", last.Data.Status)
	assert.Equal(t, 42, last.Data.PathCost)
	for i, m := range msgs[:len(msgs)-1] {
		require.NotNil(t, m.Frame)
		assert.Equal(t, 3+i, m.Frame.Steps)
	}

	msgs = exchange(t, user, client, `{"session_id":"`+id+`","action":"toggle","cell":{"row":1,"col":1}}`)
	require.NotNil(t, msgs[0].Data)
	assert.Len(t, msgs[0].Data.Obstacles, 1)

	msgs = exchange(t, user, client, `{"session_id":"`+id+`","action":"snapshot"}`)
	require.NotNil(t, msgs[0].Data)
	assert.Equal(t, "in_progress", msgs[0].Data.Status)
}

func TestUserServeErrors(t *testing.T) {
	_, user, client, id := newStreamUser(t)

	testCases := []struct {
		name    string
		request string
		code    string
	}{
		{"unknown action", `{"session_id":"` + id + `","action":"fly"}`, "Bad Request"},
		{"missing session id", `{"action":"step"}`, "Bad Request"},
		{"missing cell", `{"session_id":"` + id + `","action":"toggle"}`, "Bad Request"},
		{"unknown session", `{"session_id":"nope","action":"snapshot"}`, "Not Found"},
		{"obstacle on start", `{"session_id":"` + id + `","action":"toggle","cell":{"row":0,"col":0}}`, "Bad Request"},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			msgs := exchange(t, user, client, tt.request)
			require.Len(t, msgs, 1)
			require.NotNil(t, msgs[0].Error)
			assert.Equal(t, tt.code, msgs[0].Error.Code)
		})
	}
}

func TestHubRemove(t *testing.T) {
	hub, user, _, _ := newStreamUser(t)
	server2, client2 := net.Pipe()
	defer client2.Close()
	user2 := hub.Register(server2)
	assert.Equal(t, uint(1), user2.ID())
	assert.Equal(t, 2, hub.NumberOfUsers())

	hub.Remove(user)
	hub.Remove(user)
	assert.Equal(t, 1, hub.NumberOfUsers())

	hub.RemoveAllUser()
	assert.Equal(t, 0, hub.NumberOfUsers())
}
