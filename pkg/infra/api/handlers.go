// Package api is the HTTP adapter: gorilla/mux routes driving the inbound
// ports, with request-ID, logging and Prometheus middleware.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/metrics"
)

// legacyAliases maps the aggregation query-parameter shorthands onto
// traversal target sets.
var legacyAliases = map[string][]domain.ResourceType{
	"cs":  {domain.TypeCompetition, domain.TypeStage},
	"se":  {domain.TypeStage, domain.TypeEvent},
	"ev":  {domain.TypeEvent, domain.TypeVenue},
	"ekm": {domain.TypeEvent, domain.TypeKeyMoment},
}

// Handlers holds the inbound ports the HTTP surface drives.
type Handlers struct {
	builder  in.Builder
	lister   in.Lister
	fetcher  in.Fetcher
	metrics  *metrics.Metrics
	logLevel *slog.LevelVar
	service  string
}

// NewHandlers wires the HTTP surface to the ports.
func NewHandlers(builder in.Builder, lister in.Lister, fetcher in.Fetcher, m *metrics.Metrics, logLevel *slog.LevelVar, service string) *Handlers {
	return &Handlers{builder: builder, lister: lister, fetcher: fetcher, metrics: m, logLevel: logLevel, service: service}
}

func (h *Handlers) runBuild(w http.ResponseWriter, r *http.Request, req in.BuildRequest) {
	ctx := r.Context()
	start := time.Now()
	res, err := h.builder.Build(ctx, req)
	if h.metrics != nil {
		status := "ok"
		if err != nil {
			status = string(domain.KindOf(err))
		} else if res.Warning != "" {
			status = "partial"
		}
		h.metrics.BuildsTotal.WithLabelValues(string(req.Type), status).Inc()
		h.metrics.BuildDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())
		if err == nil {
			h.metrics.ReconcileOps.Add(float64(res.ReconcileOps))
		}
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	// The response is the new snapshot itself, plus the run metadata.
	body := res.Aggregation.ToDoc()
	body["reconcileOps"] = res.ReconcileOps
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	writeJSON(ctx, w, http.StatusOK, body)
}

// Aggregate handles POST /aggregate/{type}/{scope}/{id} for the simple
// entity types.
func (h *Handlers) Aggregate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, ok := domain.ParseResourceType(vars["type"])
	if !ok {
		writeError(r.Context(), w, domain.E(domain.KindInvalidInput, "unknown entity type %q", vars["type"]))
		return
	}
	h.runBuild(w, r, in.BuildRequest{Type: t, Scope: vars["scope"], ID: vars["id"]})
}

// AggregateStaff handles the compound staff selector.
func (h *Handlers) AggregateStaff(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	role, err := keys.ParseStaffRole(vars["role"])
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.runBuild(w, r, in.BuildRequest{
		Type: domain.TypeStaff,
		Staff: &in.StaffParams{
			SportsPersonScope: vars["spScope"],
			SportsPersonID:    vars["spId"],
			Role:              role,
			OrgScope:          vars["orgScope"],
			OrgID:             vars["orgId"],
		},
	})
}

// AggregateKeyMoment handles the compound key-moment selector.
func (h *Handlers) AggregateKeyMoment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.runBuild(w, r, in.BuildRequest{
		Type: domain.TypeKeyMoment,
		KeyMoment: &in.KeyMomentParams{
			EventScope: vars["eventScope"],
			EventID:    vars["eventId"],
			Type:       vars["type"],
			SubType:    vars["subType"],
			DateTime:   vars["dateTime"],
		},
	})
}

// AggregateRanking handles the compound ranking selector. The list side is
// a stage or an event; the participant side is a team or a sports-person.
func (h *Handlers) AggregateRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	position, err := strconv.Atoi(vars["position"])
	if err != nil {
		writeError(ctx, w, domain.E(domain.KindInvalidInput, "ranking position %q is not a number", vars["position"]))
		return
	}
	rc := keys.RankingContext{DateTime: vars["dateTime"], Position: position}

	switch strings.ToLower(vars["lType"]) {
	case "stage":
		rc.StageScope, rc.StageID = vars["lScope"], vars["lId"]
	case "event":
		rc.EventScope, rc.EventID = vars["lScope"], vars["lId"]
	default:
		writeError(ctx, w, domain.E(domain.KindInvalidInput, "ranking list type %q, want stage or event", vars["lType"]))
		return
	}
	switch strings.ToLower(vars["pType"]) {
	case "team":
		rc.TeamScope, rc.TeamID = vars["pScope"], vars["pId"]
	case "sp", "sportsperson":
		rc.SportsPersonScope, rc.SportsPersonID = vars["pScope"], vars["pId"]
	default:
		writeError(ctx, w, domain.E(domain.KindInvalidInput, "ranking participant type %q, want team or sp", vars["pType"]))
		return
	}

	h.runBuild(w, r, in.BuildRequest{Type: domain.TypeRanking, Ranking: &rc})
}

type listBody struct {
	Targets []string `json:"targets"`
	Limits  struct {
		Total   int            `json:"total"`
		PerType map[string]int `json:"perType"`
	} `json:"limits"`
	SortBy string `json:"sortBy"`
}

// List handles POST /list/{type}/{externalKey}: a bounded traversal query
// rooted at one materialised document.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	t, ok := domain.ParseResourceType(vars["type"])
	if !ok {
		writeError(ctx, w, domain.E(domain.KindInvalidInput, "unknown entity type %q", vars["type"]))
		return
	}

	var body listBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(ctx, w, domain.Wrap(domain.KindInvalidInput, err, "decoding list request"))
		return
	}

	req := in.ListRequest{
		RootType:        t,
		RootExternalKey: vars["externalKey"],
		Limits:          in.Limits{Total: body.Limits.Total},
		SortBy:          in.SortOrder(body.SortBy),
	}
	for _, target := range body.Targets {
		tt, ok := domain.ParseResourceType(target)
		if !ok {
			writeError(ctx, w, domain.E(domain.KindInvalidInput, "unknown target type %q", target))
			return
		}
		req.Targets = append(req.Targets, tt)
	}
	for name, limit := range body.Limits.PerType {
		tt, ok := domain.ParseResourceType(name)
		if !ok {
			writeError(ctx, w, domain.E(domain.KindInvalidInput, "unknown limit type %q", name))
			return
		}
		if req.Limits.PerType == nil {
			req.Limits.PerType = make(map[domain.ResourceType]int)
		}
		req.Limits.PerType[tt] = limit
	}

	res, err := h.lister.List(ctx, req)
	if h.metrics != nil {
		status := "ok"
		if err != nil {
			status = string(domain.KindOf(err))
		}
		h.metrics.ListQueries.WithLabelValues(string(t), status).Inc()
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

type fetchResponse struct {
	Entity       entities.Doc                            `json:"entity"`
	Aggregations map[domain.ResourceType]in.TargetResult `json:"aggregations,omitempty"`
}

// Fetch handles GET /{type}/{scope}/{id}. The aggregation query parameter
// accepts comma-separated legacy aliases whose traversal results are merged
// into the response.
func (h *Handlers) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	t, ok := domain.ParseResourceType(vars["type"])
	if !ok {
		writeError(ctx, w, domain.E(domain.KindInvalidInput, "unknown entity type %q", vars["type"]))
		return
	}
	doc, err := h.fetcher.FetchByExternalID(ctx, t, vars["scope"], vars["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	resp := fetchResponse{Entity: doc}

	if param := r.URL.Query().Get("aggregation"); param != "" {
		var targets []domain.ResourceType
		seen := make(map[domain.ResourceType]bool)
		for _, alias := range strings.Split(param, ",") {
			alias = strings.TrimSpace(strings.ToLower(alias))
			set, ok := legacyAliases[alias]
			if !ok {
				writeError(ctx, w, domain.E(domain.KindInvalidInput, "unknown aggregation alias %q", alias))
				return
			}
			for _, tt := range set {
				if tt == t || seen[tt] {
					continue
				}
				seen[tt] = true
				targets = append(targets, tt)
			}
		}
		if len(targets) > 0 {
			res, err := h.lister.List(ctx, in.ListRequest{
				RootType:        t,
				RootExternalKey: keys.EncodeEntityKey(vars["id"], vars["scope"]),
				Targets:         targets,
			})
			if err != nil {
				writeError(ctx, w, err)
				return
			}
			resp.Aggregations = res.Results
		}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

// Healthcheck reports liveness.
func (h *Handlers) Healthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.service,
	})
}

// SetLogLevel returns a handler flipping the process log level at runtime.
func (h *Handlers) SetLogLevel(level slog.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.logLevel.Set(level)
		slog.InfoContext(r.Context(), "log level changed", "level", level.String())
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"logLevel": level.String()})
	}
}
