package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"urban-bites/internal/board/engine"
	"urban-bites/internal/domain/dto"
	"urban-bites/internal/gateway"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"

	"github.com/gorilla/mux"
)

type BoardHandler struct {
	engine *engine.Engine
	gw     *gateway.Gateway
	mylog  logger.Logger
}

func NewBoardHandler(eng *engine.Engine, gw *gateway.Gateway, mylog logger.Logger) *BoardHandler {
	return &BoardHandler{engine: eng, gw: gw, mylog: mylog}
}

// Columns returns the current board snapshot: pending/preparing/ready, FIFO
// within each column, with derived elapsed times.
func (bh *BoardHandler) Columns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, bh.engine.Snapshot())
	}
}

// Advance moves a ticket one column to the right.
func (bh *BoardHandler) Advance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := bh.engine.Advance(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			switch {
			case errors.Is(err, xerrors.ErrOrderNotFound):
				jsonError(w, http.StatusNotFound, err)
			case errors.Is(err, xerrors.ErrInvalidTransition):
				jsonError(w, http.StatusConflict, err)
			default:
				bh.mylog.Action("advance_failed").Error("Failed to advance order", err)
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}
		jsonResponse(w, http.StatusOK, dto.OrderResponse{Order: order})
	}
}

func (bh *BoardHandler) Items() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := bh.engine.OrderItems(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			jsonError(w, http.StatusServiceUnavailable, err)
			return
		}
		jsonResponse(w, http.StatusOK, items)
	}
}

// Stats exposes the applied-locally vs mirrored-remotely counters.
func (bh *BoardHandler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, bh.gw.MirrorStats())
	}
}

func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}
