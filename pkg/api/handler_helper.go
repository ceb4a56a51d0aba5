package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

var errEmptyBody = errors.New("request body is empty")

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondValidation writes a 400 listing every rejected field.
func (s *Server) respondValidation(w http.ResponseWriter, errs validation.ValidationErrors) {
	fields := make([]FieldError, len(errs))
	for i, e := range errs {
		fields[i] = FieldError{Field: e.Field, Reason: e.Reason, Value: e.Value}
	}
	s.respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: fmt.Sprintf("invalid input: %d problem(s)", len(errs)),
		Code:    http.StatusBadRequest,
		Fields:  fields,
	})
}

// respondCalcError maps a calculation error to a response. Internal details
// are logged but not exposed.
func (s *Server) respondCalcError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if errs, ok := validation.AsValidationErrors(err); ok {
		s.respondValidation(w, errs)
		return
	}
	if errors.Is(err, calc.ErrUnknownLink) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error(operation+" failed",
		logging.Path(r.URL.Path),
		logging.Error(err),
	)
	s.respondError(w, http.StatusInternalServerError, operation+" failed")
}

// decodeInput reads a calculation request on top of the server defaults.
// Unknown fields are rejected so typos do not silently fall back to a
// default.
func (s *Server) decodeInput(r *http.Request) (calc.Input, error) {
	in := calc.Input{
		Params:   s.cfg.System,
		Topology: topology.DefaultSpec(0),
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, errEmptyBody
		}
		return in, fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return in, errors.New("invalid request body: trailing data")
	}
	return in, nil
}

// exportQuery holds the optional ?format= and ?link= parameters.
type exportQuery struct {
	format report.Format
	linkID int
}

func parseExportQuery(r *http.Request) (exportQuery, error) {
	var q exportQuery
	if v := r.URL.Query().Get("link"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id < 1 {
			return q, fmt.Errorf("link must be a positive integer, got %q", v)
		}
		q.linkID = id
	}
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			return q, err
		}
		q.format = f
	}
	return q, nil
}

// parseFormats reads a comma-separated ?formats= list, falling back to def.
func parseFormats(r *http.Request, def []string) ([]report.Format, error) {
	names := def
	if v := r.URL.Query().Get("formats"); v != "" {
		names = strings.Split(v, ",")
	}
	formats := make([]report.Format, 0, len(names))
	for _, n := range names {
		f, err := report.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
