package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/pkg/models"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items)}
}

// Rounds

func roundFilter(r *http.Request) queries.RoundFilter {
	q := r.URL.Query()
	return queries.RoundFilter{
		Status:     models.RoundStatus(q.Get("status")),
		Department: q.Get("department"),
		Search:     q.Get("q"),
	}
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	s.listRounds(w, r, (*queries.Queries).FetchRounds)
}

func (s *Server) handleListMyRounds(w http.ResponseWriter, r *http.Request) {
	s.listRounds(w, r, (*queries.Queries).FetchMyRounds)
}

func (s *Server) listRounds(w http.ResponseWriter, r *http.Request, fetch func(*queries.Queries, context.Context) ([]models.Round, error)) {
	rs := SessionFromContext(r.Context())
	rounds, err := fetch(rs.Queries, r.Context())
	if err != nil {
		respondUpstreamError(w, r, "list rounds", err)
		return
	}
	respondJSON(w, http.StatusOK, newList(queries.FilterRounds(rounds, roundFilter(r))))
}

func (s *Server) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var in models.RoundInput
	if !decodeJSON(w, r, &in) {
		return
	}

	rs := SessionFromContext(r.Context())
	round, err := rs.Queries.RoundMutations().Create.Mutate(r.Context(), in)
	if err != nil {
		respondUpstreamError(w, r, "create round", err)
		return
	}
	respondJSON(w, http.StatusCreated, round)
}

func (s *Server) handleUpdateRound(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in models.RoundInput
	if !decodeJSON(w, r, &in) {
		return
	}

	rs := SessionFromContext(r.Context())
	round, err := rs.Queries.RoundMutations().Update.Mutate(r.Context(), queries.Edit[models.RoundInput]{ID: id, Input: in})
	if err != nil {
		respondUpstreamError(w, r, "update round", err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

func (s *Server) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	rs := SessionFromContext(r.Context())
	if _, err := rs.Queries.RoundMutations().Delete.Mutate(r.Context(), id); err != nil {
		respondUpstreamError(w, r, "delete round", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "round deleted"})
}

func (s *Server) handleFinalizeRound(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req models.FinalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rs := SessionFromContext(r.Context())
	round, err := rs.Queries.RoundMutations().Finalize.Mutate(r.Context(), queries.Edit[models.FinalizeRequest]{ID: id, Input: req})
	if err != nil {
		respondUpstreamError(w, r, "finalize evaluations", err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

// CAPAs

func (s *Server) handleListCapas(w http.ResponseWriter, r *http.Request) {
	rs := SessionFromContext(r.Context())
	capas, err := rs.Queries.FetchCapas(r.Context())
	if err != nil {
		respondUpstreamError(w, r, "list capas", err)
		return
	}

	if overdue, _ := strconv.ParseBool(r.URL.Query().Get("overdue")); overdue {
		capas = queries.OverdueCapas(capas, s.now())
	}
	respondJSON(w, http.StatusOK, newList(capas))
}

func (s *Server) handleCreateCapa(w http.ResponseWriter, r *http.Request) {
	var in models.CapaInput
	if !decodeJSON(w, r, &in) {
		return
	}

	rs := SessionFromContext(r.Context())
	capa, err := rs.Queries.CapaMutations().Create.Mutate(r.Context(), in)
	if err != nil {
		respondUpstreamError(w, r, "create capa", err)
		return
	}
	respondJSON(w, http.StatusCreated, capa)
}

func (s *Server) handleUpdateCapa(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var patch models.CapaPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	rs := SessionFromContext(r.Context())
	capa, err := rs.Queries.CapaMutations().Update.Mutate(r.Context(), queries.Edit[models.CapaPatch]{ID: id, Input: patch})
	if err != nil {
		respondUpstreamError(w, r, "update capa", err)
		return
	}
	respondJSON(w, http.StatusOK, capa)
}

func (s *Server) handleDeleteCapa(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	rs := SessionFromContext(r.Context())
	if _, err := rs.Queries.CapaMutations().Delete.Mutate(r.Context(), id); err != nil {
		respondUpstreamError(w, r, "delete capa", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "capa deleted"})
}

// Plain collections

// listHandler serves a collection fetched through the session's queries
func listHandler[T any](fetch func(*queries.Queries, context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs := SessionFromContext(r.Context())
		items, err := fetch(rs.Queries, r.Context())
		if err != nil {
			respondUpstreamError(w, r, "list "+chi.RouteContext(r.Context()).RoutePattern(), err)
			return
		}
		respondJSON(w, http.StatusOK, newList(items))
	}
}

// crudRoutes mounts list, create, update and delete for a collection
func crudRoutes[T, In any](
	r chi.Router,
	pattern string,
	fetch func(*queries.Queries, context.Context) ([]T, error),
	mutations func(*queries.Queries) queries.CRUD[T, In],
) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", listHandler(fetch))

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in In
			if !decodeJSON(w, r, &in) {
				return
			}
			rs := SessionFromContext(r.Context())
			created, err := mutations(rs.Queries).Create.Mutate(r.Context(), in)
			if err != nil {
				respondUpstreamError(w, r, "create"+pattern, err)
				return
			}
			respondJSON(w, http.StatusCreated, created)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(w, r)
			if !ok {
				return
			}
			var in In
			if !decodeJSON(w, r, &in) {
				return
			}
			rs := SessionFromContext(r.Context())
			updated, err := mutations(rs.Queries).Update.Mutate(r.Context(), queries.Edit[In]{ID: id, Input: in})
			if err != nil {
				respondUpstreamError(w, r, "update"+pattern, err)
				return
			}
			respondJSON(w, http.StatusOK, updated)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(w, r)
			if !ok {
				return
			}
			rs := SessionFromContext(r.Context())
			if _, err := mutations(rs.Queries).Delete.Mutate(r.Context(), id); err != nil {
				respondUpstreamError(w, r, "delete"+pattern, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
		})
	})
}

// Dashboard and reports

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rs := SessionFromContext(r.Context())
	dashboard, err := rs.Queries.Dashboard(r.Context(), s.now())
	if err != nil {
		respondUpstreamError(w, r, "build dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"groups":  s.catalog.Groups(),
		"reports": s.catalog.List(group),
	})
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def := s.catalog.Get(name)
	if def == nil {
		respondError(w, http.StatusNotFound, "not_found", "report not found")
		return
	}

	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	rs := SessionFromContext(r.Context())
	report, err := rs.Queries.FetchReport(r.Context(), *def, params)
	if err != nil {
		respondUpstreamError(w, r, "run report", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Preferences

type preferences struct {
	SidebarCollapsed bool `json:"sidebarCollapsed"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	rs := SessionFromContext(r.Context())
	prefs := session.NewPreferences(rs.Store)
	respondJSON(w, http.StatusOK, preferences{SidebarCollapsed: prefs.SidebarCollapsed(r.Context())})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferences
	if !decodeJSON(w, r, &req) {
		return
	}

	rs := SessionFromContext(r.Context())
	if err := session.NewPreferences(rs.Store).SetSidebarCollapsed(r.Context(), req.SidebarCollapsed); err != nil {
		respondUpstreamError(w, r, "save preferences", err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
