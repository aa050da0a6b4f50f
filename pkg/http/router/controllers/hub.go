package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/Pathviz/pkg/concurrent"
	"github.com/lintang-b-s/Pathviz/pkg/engine"
	"github.com/lintang-b-s/Pathviz/pkg/util"
	"go.uber.org/zap"
)

// User is one websocket connection. Reads and writes on conn hold io.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) readRequest() (*streamRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &streamRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (u *User) writeError(status int, err error) error {
	return u.write(envelope{"error": map[string]string{
		"code":    http.StatusText(status),
		"message": err.Error(),
	}})
}

func errorStatus(err error) int {
	switch util.ErrorCode(err) {
	case util.ErrBadParamInput:
		return http.StatusBadRequest
	case util.ErrNotFound:
		return http.StatusNotFound
	case util.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Serve reads one command and answers it. A run command streams one frame per step
// followed by the final state. Service errors are reported to the client, only
// connection errors are returned.
func (u *User) Serve(ctx context.Context) error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}
	if req == nil {
		return nil
	}
	if err := validate(req); err != nil {
		return u.writeError(http.StatusBadRequest, err)
	}

	svc := u.hub.sessionService
	var snap engine.Snapshot
	switch req.Action {
	case "snapshot":
		snap, err = svc.GetSnapshot(req.SessionID)
	case "step":
		count := req.Count
		if count == 0 {
			count = 1
		}
		snap, err = svc.Step(req.SessionID, count)
	case "run":
		var errWrite error
		snap, err = svc.Run(ctx, req.SessionID, req.MaxSteps, func(frame engine.Snapshot) error {
			errWrite = u.write(envelope{"frame": NewSessionResponse(req.SessionID, frame, true)})
			return errWrite
		})
		if errWrite != nil {
			return errWrite
		}
	case "toggle", "start":
		if req.Cell == nil {
			return u.writeError(http.StatusBadRequest, errors.New("cell is required"))
		}
		if req.Action == "toggle" {
			snap, err = svc.ToggleObstacle(req.SessionID, *req.Cell)
		} else {
			snap, err = svc.ChangeStart(req.SessionID, *req.Cell, req.Snap)
		}
	}
	if err != nil {
		u.hub.log.Info("stream request failed", zap.String("action", req.Action), zap.Error(err))
		return u.writeError(errorStatus(err), err)
	}
	return u.write(envelope{"data": NewSessionResponse(req.SessionID, snap, true)})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

// Hub keeps the connected users ordered by id.
type Hub struct {
	mu             sync.RWMutex
	seq            uint
	us             []*User
	ns             map[uint]*User
	sessionService SessionService
	log            *zap.Logger

	pool *concurrent.GoroutinePool
}

func NewHub(pool *concurrent.GoroutinePool, sessionService SessionService, log *zap.Logger) *Hub {
	return &Hub{
		pool:           pool,
		ns:             make(map[uint]*User),
		us:             make([]*User, 0),
		sessionService: sessionService,
		log:            log,
	}
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(user)
}

func (h *Hub) remove(user *User) {
	if _, ok := h.ns[user.id]; !ok {
		return
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
	user.conn.Close()
}

func (h *Hub) RemoveAllUser() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.us) > 0 {
		h.remove(h.us[0])
	}
}

func (h *Hub) NumberOfUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}
