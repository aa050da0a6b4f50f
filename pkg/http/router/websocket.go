package router

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/lintang-b-s/Pathviz/pkg/concurrent"
	"github.com/lintang-b-s/Pathviz/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/Pathviz/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"
)

// handleWebsocket accepts stream connections on the websocket port until ctx is done.
// Accepting and serving run on a goroutine pool driven by epoll readiness events, so
// idle connections hold no goroutine.
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	sessionService controllers.SessionService,
) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.WebsocketPort))
	if err != nil {
		return err
	}
	api.log.Info(fmt.Sprintf("search stream websocket API run on port %d", config.WebsocketPort))

	acceptDesc, err := netpoll.HandleListener(ln, netpoll.EventRead|netpoll.EventOneShot)
	if err != nil {
		ln.Close()
		return err
	}

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		return err
	}

	api.pool = concurrent.NewGoroutinePool(128, 16)
	api.pool.Spawn(16)
	api.hub = controllers.NewHub(api.pool, sessionService, api.log)

	// accept is a channel to signal about next incoming connection Accept() results.
	accept := make(chan error, 1)

	fatal := make(chan error, 1)
	err = api.poller.Start(acceptDesc, func(ev netpoll.Event) {
		defer api.poller.Resume(acceptDesc)
		err := api.pool.ScheduleTimeout(time.Millisecond, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(ctx, conn)
		})
		if err == nil {
			err = <-accept
		}
		if err == nil {
			return
		}

		// the pool is busy or accept timed out, cool down before the next accept
		var ne net.Error
		if errors.Is(err, concurrent.ErrScheduleTimeout) || (errors.As(err, &ne) && ne.Timeout()) {
			delay := 5 * time.Millisecond
			api.log.Info("accept error, retrying", zap.Error(err), zap.Duration("delay", delay))
			time.Sleep(delay)
			return
		}
		if errors.Is(err, concurrent.ErrPoolClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		select {
		case fatal <- err:
		default:
		}
	})
	if err != nil {
		ln.Close()
		return err
	}

	select {
	case <-ctx.Done():
		err = nil
	case err = <-fatal:
		api.log.Error("accept error", zap.Error(err))
	}

	api.poller.Stop(acceptDesc)
	ln.Close()
	api.hub.RemoveAllUser()
	api.pool.Close()

	api.log.Info("websocket server stopped")
	return err
}

// handle upgrades conn and registers it with the poller. Each readable event schedules
// one request on the pool.
func (api *API) handle(ctx context.Context, conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		api.log.Error("poller handle error", zap.Error(err))
		api.hub.Remove(user)
		return
	}

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// the peer closed its end
			api.log.Info("user disconnected from websocket server", zap.Uint("user", user.ID()))
			api.poller.Stop(desc)
			api.hub.Remove(user)
			return
		}

		err := api.pool.Schedule(func() {
			if err := user.Serve(ctx); err != nil {
				api.log.Info("closing websocket connection", zap.Uint("user", user.ID()), zap.Error(err))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
		if err != nil {
			api.poller.Stop(desc)
			api.hub.Remove(user)
		}
	})
	if err != nil {
		api.log.Error("poller start error", zap.Error(err))
		api.hub.Remove(user)
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
