package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		formats = append(formats, string(f))
	}
	s.respondJSON(w, http.StatusOK, InfoResponse{
		Service: "apwr-dropcalc",
		Version: Version,
		Started: s.startTime,
		Formats: formats,
		Routes:  routes,
	})
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, DefaultsResponse{
		Params:             s.cfg.System,
		Topology:           topology.DefaultSpec(topology.DefaultAnodesPerHub),
		AllowedDropPercent: s.cfg.System.AllowedDropPercent(),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeInput(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := calc.Validate(in); err != nil {
		s.respondCalcError(w, r, err, "validation")
		return
	}

	topo, err := topology.Build(in.Topology)
	if err != nil {
		s.respondCalcError(w, r, err, "validation")
		return
	}
	s.respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:  true,
		Hubs:   topo.HubCount(),
		Links:  topo.LinkCount(),
		Anodes: topo.TotalAnodes(),
	})
}

// handleCalculate runs a calculation. Without ?format= it answers with the
// JSON result; with it the result is exported in that format. ?link=N
// restricts either answer to one link. Constraint violations are part of a
// successful response.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	q, err := parseExportQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.decodeInput(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.calculator.Calculate(in)
	if err != nil {
		s.respondCalcError(w, r, err, "calculation")
		return
	}

	if q.format == "" {
		if q.linkID != 0 {
			if res, err = res.ForLink(q.linkID); err != nil {
				s.respondCalcError(w, r, err, "calculation")
				return
			}
		}
		s.respondJSON(w, http.StatusOK, res)
		return
	}

	// Render fully before writing so a failed export can still get an
	// error status.
	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, res, report.Options{Format: q.format, LinkID: q.linkID}); err != nil {
		s.respondCalcError(w, r, err, "export")
		return
	}

	w.Header().Set("Content-Type", q.format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.Filename(res, q.format, q.linkID)))
	w.Header().Set("X-Calculation-Status", string(res.Status.Status))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write export", logging.Error(err))
	}
}

// handlePublish calculates and uploads the system report and every per-link
// report to the configured bucket.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.respondError(w, http.StatusNotImplemented, report.ErrNoBucket.Error())
		return
	}
	formats, err := parseFormats(r, s.cfg.Report.Formats)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.decodeInput(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.calculator.Calculate(in)
	if err != nil {
		s.respondCalcError(w, r, err, "calculation")
		return
	}

	start := time.Now()
	keys, err := s.publisher.Publish(r.Context(), s.exporter, res, formats)
	if err != nil {
		if r.Context().Err() != nil {
			s.respondError(w, http.StatusServiceUnavailable, "publish cancelled")
			return
		}
		s.respondCalcError(w, r, err, "publish")
		return
	}
	s.logger.Info("reports published",
		logging.CalculationID(res.ID.String()),
		logging.Count(len(keys)),
		logging.Latency(time.Since(start)),
	)

	s.respondJSON(w, http.StatusOK, PublishResponse{
		CalculationID: res.ID.String(),
		Status:        string(res.Status.Status),
		Keys:          keys,
	})
}
