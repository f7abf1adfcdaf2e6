package handle

import (
	"errors"
	"net/http"

	"urban-bites/internal/domain/dto"
	"urban-bites/internal/gateway"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

type TableHandler struct {
	gw    *gateway.Gateway
	mylog logger.Logger
}

func NewTableHandler(gw *gateway.Gateway, mylog logger.Logger) *TableHandler {
	return &TableHandler{gw: gw, mylog: mylog}
}

// Resolve answers the customer routing contract: an order session is
// addressed by a single opaque ?token= query parameter.
func (th *TableHandler) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")

		table, err := th.gw.ResolveTable(r.Context(), token)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, xerrors.ErrTableNotFound) {
				status = http.StatusNotFound
			}
			jsonError(w, status, err)
			return
		}

		jsonResponse(w, http.StatusOK, dto.TableResponse{
			Table:      table,
			Restaurant: th.gw.FetchRestaurant(r.Context()),
		})
	}
}

type MenuHandler struct {
	gw *gateway.Gateway
}

func NewMenuHandler(gw *gateway.Gateway) *MenuHandler {
	return &MenuHandler{gw: gw}
}

func (mh *MenuHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, mh.gw.FetchMenu(r.Context()))
	}
}
