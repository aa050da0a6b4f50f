package controllers

import (
	"bytes"
	"net/http"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/Pathviz/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type sessionAPI struct {
	errorHandler
	sessionService SessionService
	log            *zap.Logger
}

func New(sessionService SessionService, log *zap.Logger) *sessionAPI {
	return &sessionAPI{
		errorHandler:   errorHandler{log: log},
		sessionService: sessionService,
		log:            log,
	}
}

func (api *sessionAPI) Routes(group *helper.RouteGroup) {
	group.GET("/algorithms", api.algorithms)

	group.POST("/sessions", api.createSession)
	group.GET("/sessions/:id", api.getSession)
	group.DELETE("/sessions/:id", api.deleteSession)
	group.POST("/sessions/:id/step", api.step)
	group.POST("/sessions/:id/run", api.run)
	group.POST("/sessions/:id/restart", api.restart)
	group.PUT("/sessions/:id/obstacles", api.updateObstacles)
	group.POST("/sessions/:id/obstacles/toggle", api.toggleObstacle)
	group.PUT("/sessions/:id/start", api.changeStart)
	group.GET("/sessions/:id/image", api.image)
}

// algorithms
//
//	@Summary		list the search algorithms
//	@Tags			sessions
//	@Produce		json
//	@Router			/algorithms [get]
//	@Success		200	{object}	[]algorithmResponse
func (api *sessionAPI) algorithms(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewAlgorithmsResponse(api.sessionService.Algorithms())}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// createSession
//
//	@Summary		create a search session on a new grid
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createSessionRequest	true	"grid and search options"
//	@Router			/sessions [post]
//	@Success		201	{object}	sessionResponse
//	@Failure		400	{object}	errorResponse
func (api *sessionAPI) createSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request createSessionRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	params, err := request.toParams()
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	session, snap, err := api.sessionService.CreateSession(params)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	resp := NewSessionResponse(session.ID(), snap, true)
	createdAt := session.CreatedAt()
	resp.CreatedAt = &createdAt

	headers := make(http.Header)
	headers.Set("Location", "/api/sessions/"+session.ID())
	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": resp}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// getSession
//
//	@Summary		current state of a session, blackboard included
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"session id"
//	@Router			/sessions/{id} [get]
//	@Success		200	{object}	sessionResponse
//	@Failure		404	{object}	errorResponse
func (api *sessionAPI) getSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	snap, err := api.sessionService.GetSnapshot(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) deleteSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := api.sessionService.DeleteSession(p.ByName("id")); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"message": "session deleted"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// step
//
//	@Summary		advance the search by count updates
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"session id"
//	@Param			body	body		stepRequest	true	"number of updates"
//	@Router			/sessions/{id}/step [post]
//	@Success		200	{object}	sessionResponse
func (api *sessionAPI) step(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request := stepRequest{Count: 1}
	if r.ContentLength != 0 {
		if err := api.readJSON(w, r, &request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	id := p.ByName("id")
	snap, err := api.sessionService.Step(id, request.Count)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// run
//
//	@Summary		run the search until it succeeds, fails or max_steps updates were made
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"session id"
//	@Param			body	body		runRequest	false	"step limit, 0 for none"
//	@Router			/sessions/{id}/run [post]
//	@Success		200	{object}	sessionResponse
func (api *sessionAPI) run(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request runRequest
	if r.ContentLength != 0 {
		if err := api.readJSON(w, r, &request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	id := p.ByName("id")
	snap, err := api.sessionService.Run(r.Context(), id, request.MaxSteps, nil)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) restart(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("id")
	snap, err := api.sessionService.Restart(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// updateObstacles
//
//	@Summary		add and remove obstacles, the search continues from the changed map
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"session id"
//	@Param			body	body		obstaclesRequest	true	"cells to block and to free"
//	@Router			/sessions/{id}/obstacles [put]
//	@Success		200	{object}	sessionResponse
//	@Failure		400	{object}	errorResponse
func (api *sessionAPI) updateObstacles(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request obstaclesRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	id := p.ByName("id")
	snap, err := api.sessionService.UpdateObstacles(id, request.Add, request.Remove)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) toggleObstacle(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request cellRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	id := p.ByName("id")
	snap, err := api.sessionService.ToggleObstacle(id, request.Cell)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// changeStart
//
//	@Summary		move the start point, snap moves it off obstacles to the nearest free cell
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"session id"
//	@Param			body	body		cellRequest	true	"new start"
//	@Router			/sessions/{id}/start [put]
//	@Success		200	{object}	sessionResponse
func (api *sessionAPI) changeStart(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request cellRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	id := p.ByName("id")
	snap, err := api.sessionService.ChangeStart(id, request.Cell, request.Snap)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(id, snap, true)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// image
//
//	@Summary		PNG of the grid and the blackboard
//	@Tags			sessions
//	@Produce		png
//	@Param			id	path	string	true	"session id"
//	@Router			/sessions/{id}/image [get]
func (api *sessionAPI) image(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var buf bytes.Buffer
	if err := api.sessionService.RenderPNG(p.ByName("id"), &buf); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		api.log.Error("failed to write image", zap.Error(err))
	}
}
