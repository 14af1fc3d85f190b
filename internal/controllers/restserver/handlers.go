package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lildrip/lildrip/internal/blm"
	"github.com/lildrip/lildrip/internal/database"
	"github.com/lildrip/lildrip/internal/log"
	"github.com/lildrip/lildrip/internal/timeseries"
	"github.com/lildrip/lildrip/pkg/params"
	"github.com/lildrip/lildrip/pkg/raincsv"
)

const maxUploadBytes = 32 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{controller: ctrl}
}

// Health reports service liveness
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Calibrate handles POST /calibrate: a multipart CSV upload of a
// fine-resolution rainfall series plus optional form overrides. Responds
// with the calibrated parameters as JSON.
func (h *Handlers) Calibrate(w http.ResponseWriter, req *http.Request) {
	grid, err := h.uploadedGrid(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts, err := h.calibrationRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, eventCount, err := h.runCalibration(grid, opts)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	if name := req.FormValue("save_as"); name != "" {
		if err := h.controller.Params.Save(name, p); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("parameters calibrated but could not be saved: %w", err))
			return
		}
	}

	h.archiveCalibration(p, eventCount, grid.Len(), opts)
	writeJSON(w, http.StatusOK, p)
}

// Disaggregate handles POST /disaggregate: a multipart CSV upload of a
// coarse series plus parameters (inline JSON or a stored name). Responds
// with the fine-resolution series as a CSV attachment.
func (h *Handlers) Disaggregate(w http.ResponseWriter, req *http.Request) {
	coarse, err := h.uploadedGrid(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.requestParameters(req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	model, err := blm.NewCalibrated(p)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	fineInterval := time.Duration(h.formInt(req, "disagg_interval_minutes", h.controller.cfg.Model.DisaggIntervalMinutes)) * time.Minute

	fine, err := h.disaggregate(model, coarse, fineInterval, req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	h.archiveDisaggregation(coarse, fine, fineInterval, req.FormValue("seed") != "")
	writeCSVAttachment(w, fine, "disaggregated_rainfall.csv")
}

// CalibrateAndDisaggregate handles POST /calibrate-and-disaggregate: the
// uploaded fine series is calibrated against, aggregated to a coarse
// series, and disaggregated back to the fine resolution in one request.
func (h *Handlers) CalibrateAndDisaggregate(w http.ResponseWriter, req *http.Request) {
	grid, err := h.uploadedGrid(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts, err := h.calibrationRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, eventCount, err := h.runCalibration(grid, opts)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	model, err := blm.NewCalibrated(p)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	fineInterval := time.Duration(h.formInt(req, "disagg_interval_minutes", h.controller.cfg.Model.DisaggIntervalMinutes)) * time.Minute

	coarse, err := grid.Aggregate(2 * fineInterval)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	fine, err := h.disaggregate(model, coarse, fineInterval, req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	h.archiveCalibration(p, eventCount, grid.Len(), opts)
	h.archiveDisaggregation(coarse, fine, fineInterval, req.FormValue("seed") != "")
	writeCSVAttachment(w, fine, "disaggregated_rainfall.csv")
}

// ListParams handles GET /params
func (h *Handlers) ListParams(w http.ResponseWriter, req *http.Request) {
	names, err := h.controller.Params.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": names})
}

// GetParams handles GET /params/{name}
func (h *Handlers) GetParams(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	p, err := h.controller.Params.Load(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutParams handles PUT /params/{name}
func (h *Handlers) PutParams(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]

	var p params.Parameters
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxUploadBytes))
	if err := decoder.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid parameters body: %w", err))
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.controller.Params.Save(name, p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// calibrationRequest collects the calibration settings for a request,
// falling back to the configured model defaults.
type calibrationSettings struct {
	interval      time.Duration
	interEventGap time.Duration
	opts          blm.CalibrateOptions
}

func (h *Handlers) calibrationRequest(req *http.Request) (calibrationSettings, error) {
	cfg := h.controller.cfg.Model

	s := calibrationSettings{
		interval:      time.Duration(h.formInt(req, "interval_minutes", cfg.IntervalMinutes)) * time.Minute,
		interEventGap: time.Duration(h.formInt(req, "inter_event_gap_minutes", cfg.InterEventGapMinutes)) * time.Minute,
	}
	s.opts.IntraEventGap = time.Duration(h.formInt(req, "intra_event_gap_minutes", cfg.IntraEventGapMinutes)) * time.Minute

	for _, field := range []struct {
		key  string
		dest **float64
	}{
		{"beta", &s.opts.Beta},
		{"eta", &s.opts.Eta},
	} {
		raw := req.FormValue(field.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return calibrationSettings{}, fmt.Errorf("invalid %s override %q: %w", field.key, raw, err)
		}
		*field.dest = &v
	}

	return s, nil
}

func (h *Handlers) runCalibration(grid *timeseries.Grid, s calibrationSettings) (params.Parameters, int, error) {
	events, err := blm.IdentifyEvents(grid, s.interEventGap)
	if err != nil {
		return params.Parameters{}, 0, err
	}

	model := blm.New()
	p, err := model.Calibrate(events, s.interval, s.opts)
	if err != nil {
		return params.Parameters{}, 0, err
	}
	return p, len(events), nil
}

// requestParameters resolves the parameter set for a disaggregation
// request: inline JSON in the "params" form field, or a stored set named
// by "params_name".
func (h *Handlers) requestParameters(req *http.Request) (params.Parameters, error) {
	if raw := req.FormValue("params"); raw != "" {
		var p params.Parameters
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return params.Parameters{}, fmt.Errorf("invalid params JSON: %w", err)
		}
		return p, p.Validate()
	}
	if name := req.FormValue("params_name"); name != "" {
		return h.controller.Params.Load(name)
	}
	return params.Parameters{}, fmt.Errorf("%w: supply 'params' JSON or a stored 'params_name'", blm.ErrNotCalibrated)
}

func (h *Handlers) disaggregate(model *blm.Model, coarse *timeseries.Grid, fineInterval time.Duration, req *http.Request) (*timeseries.Grid, error) {
	if raw := req.FormValue("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid seed %q", blm.ErrInvalidConfig, raw)
		}
		return model.DisaggregateSeed(coarse, fineInterval, seed)
	}
	return model.Disaggregate(coarse, fineInterval)
}

// uploadedGrid reads the "file" part of a multipart upload as a rainfall
// CSV on a uniform grid.
func (h *Handlers) uploadedGrid(req *http.Request) (*timeseries.Grid, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart upload: %w", err)
	}
	file, _, err := req.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing 'file' upload: %w", err)
	}
	defer file.Close()

	return raincsv.ReadGrid(file)
}

func (h *Handlers) formInt(req *http.Request, key string, def int) int {
	raw := req.FormValue(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("ignoring bad %s value %q, using default %d", key, raw, def)
		return def
	}
	return v
}

// archiveCalibration records the run if archival is enabled. Best effort:
// archival failures are logged, not surfaced to the client.
func (h *Handlers) archiveCalibration(p params.Parameters, eventCount, sampleCount int, s calibrationSettings) {
	if !h.controller.DBEnabled {
		return
	}
	run := &database.CalibrationRun{
		Lambda:               p.Lambda,
		Beta:                 p.Beta,
		Gamma:                p.Gamma,
		Eta:                  p.Eta,
		Mu:                   p.Mu,
		EventCount:           eventCount,
		SampleCount:          sampleCount,
		IntervalMinutes:      int(s.interval / time.Minute),
		InterEventGapMinutes: int(s.interEventGap / time.Minute),
		IntraEventGapMinutes: int(s.opts.IntraEventGap / time.Minute),
	}
	if err := h.controller.DB.SaveCalibrationRun(run); err != nil {
		log.Errorf("failed to archive calibration run: %v", err)
	}
}

func (h *Handlers) archiveDisaggregation(coarse, fine *timeseries.Grid, fineInterval time.Duration, seeded bool) {
	if !h.controller.DBEnabled {
		return
	}
	job := &database.DisaggregationJob{
		CoarseSamples:       coarse.Len(),
		FineIntervalMinutes: int(fineInterval / time.Minute),
		TotalRainfallMM:     fine.Sum(),
		Seeded:              seeded,
	}
	if err := h.controller.DB.SaveDisaggregationJob(job); err != nil {
		log.Errorf("failed to archive disaggregation job: %v", err)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, blm.ErrNoEvents),
		errors.Is(err, blm.ErrInvalidConfig),
		errors.Is(err, blm.ErrNotCalibrated),
		errors.Is(err, timeseries.ErrInvalidSeries),
		errors.Is(err, raincsv.ErrUnsupportedFill):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeCSVAttachment(w http.ResponseWriter, g *timeseries.Grid, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := raincsv.Write(w, g); err != nil {
		log.Errorf("failed to write CSV response: %v", err)
	}
}
