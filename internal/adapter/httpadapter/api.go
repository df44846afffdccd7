package httpadapter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/hexgrid"
	"github.com/couchcryptid/covid-state-etl/internal/region"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// HistoryProvider supplies the current trailing window of every region.
type HistoryProvider interface {
	History() map[string][]domain.DailyRecord
}

// SnapshotProvider supplies the latest published snapshot of a region.
type SnapshotProvider interface {
	Get(code string) (domain.RegionSnapshot, bool)
}

// API serves the map views computed from the pipeline's in-memory state.
type API struct {
	catalog   *region.Catalog
	metrics   []domain.MetricDefinition
	history   HistoryProvider
	snapshots SnapshotProvider
	layout    []hexgrid.Cell
	logger    *slog.Logger
}

// NewAPI lays out the catalog's hexgrid once and returns the API.
func NewAPI(catalog *region.Catalog, metrics []domain.MetricDefinition, history HistoryProvider, snapshots SnapshotProvider, logger *slog.Logger) (*API, error) {
	cells, err := hexgrid.Layout(catalog.Regions(), hexgrid.DefaultExtent)
	if err != nil {
		return nil, fmt.Errorf("hexgrid layout: %w", err)
	}
	return &API{
		catalog:   catalog,
		metrics:   metrics,
		history:   history,
		snapshots: snapshots,
		layout:    cells,
		logger:    logger,
	}, nil
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/metrics", a.handleMetrics)
	mux.HandleFunc("GET /api/v1/map/{metric}", a.handleMap)
	mux.HandleFunc("GET /api/v1/layout", a.handleLayout)
	mux.HandleFunc("GET /api/v1/regions", a.handleRegions)
	mux.HandleFunc("GET /api/v1/regions/{code}", a.handleRegion)
	mux.HandleFunc("GET /api/v1/regions/{code}/neighbors/{direction}", a.handleNeighbor)
}

func (a *API) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.metrics)
}

func (a *API) lookupMetric(id string) (domain.MetricDefinition, error) {
	for _, m := range a.metrics {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.MetricDefinition{}, fmt.Errorf("%w: %q", domain.ErrUnknownMetric, id)
}

func (a *API) handleMap(w http.ResponseWriter, r *http.Request) {
	metric, err := a.lookupMetric(r.PathValue("metric"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	view, err := domain.BuildMapView(metric, a.catalog.Regions(), a.history.History())
	if err != nil {
		a.logger.Error("map view failed", "metric", metric.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (a *API) handleLayout(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"extent": hexgrid.DefaultExtent,
		"cells":  a.layout,
	})
}

type regionEntry struct {
	domain.Region
	Link      string                      `json:"link"`
	Neighbors map[region.Direction]string `json:"neighbors"`
}

func (a *API) entry(r domain.Region) regionEntry {
	return regionEntry{Region: r, Link: r.Link(), Neighbors: a.catalog.Adjacency().Neighbors(r.Code)}
}

func (a *API) handleRegions(w http.ResponseWriter, r *http.Request) {
	var regions []domain.Region
	switch sort := r.URL.Query().Get("sort"); sort {
	case "", "name":
		regions = a.catalog.SortedByName()
	case "code":
		regions = a.catalog.SortedByCode()
	case "grid":
		regions = a.catalog.Regions()
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown sort %q", sort))
		return
	}
	out := make([]regionEntry, len(regions))
	for i, reg := range regions {
		out[i] = a.entry(reg)
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleRegion(w http.ResponseWriter, r *http.Request) {
	reg, err := a.catalog.Lookup(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	body := struct {
		regionEntry
		Snapshot *domain.RegionSnapshot `json:"snapshot,omitempty"`
	}{regionEntry: a.entry(reg)}
	if snap, ok := a.snapshots.Get(reg.Code); ok {
		body.Snapshot = &snap
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

func (a *API) handleNeighbor(w http.ResponseWriter, r *http.Request) {
	reg, err := a.catalog.Lookup(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	dir, err := region.ParseDirection(r.PathValue("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	code, ok := a.catalog.Adjacency().Neighbor(reg.Code, dir)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no neighbor in that direction"))
		return
	}
	neighbor, _ := a.catalog.Lookup(code)
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"from":      reg.Code,
		"direction": dir,
		"region":    a.entry(neighbor),
	})
}
