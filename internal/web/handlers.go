package web

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/caojiali1996/group15/internal/choices"
	"github.com/caojiali1996/group15/internal/export"
	"github.com/caojiali1996/group15/internal/forms"
	"github.com/caojiali1996/group15/internal/store"
)

var aggregationColumns = []string{"country", "month", "ship_type"}

type pageData struct {
	Title string
	Nav   string
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := renderPage(&buf, name, data); err != nil {
		s.logger.Error("render page failed", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.logger.Error(what, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", pageData{Title: "Home", Nav: "home"})
}

type dbPage struct {
	pageData
	Greetings []store.Greeting
}

func (s *Server) handleDB(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.InsertGreeting(ctx); err != nil {
		s.serverError(w, "insert greeting failed", err)
		return
	}
	greetings, err := s.store.ListGreetings(ctx)
	if err != nil {
		s.serverError(w, "list greetings failed", err)
		return
	}
	s.render(w, "db.html", dbPage{
		pageData:  pageData{Title: "DB demo", Nav: "db"},
		Greetings: greetings,
	})
}

// pathPage reads the {page} path value, defaulting to 1. The value is
// clamped later, so garbage just lands on the first page.
func pathPage(r *http.Request) int {
	raw := r.PathValue("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}

// orderColumn allow-lists the order_by query parameter. Anything outside the
// fixed set falls back to the default, which keeps the interpolated ORDER BY
// injection-free.
func orderColumn(r *http.Request, allowed []string, fallback string) string {
	requested := r.URL.Query().Get("order_by")
	for _, col := range allowed {
		if col == requested {
			return requested
		}
	}
	return fallback
}

type emissionsPage struct {
	pageData
	Columns  []string
	Rows     []store.Emission
	Page     int
	NumPages int
	OrderBy  string
	Msg      string
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderBy := orderColumn(r, store.Columns, "imo")

	count, err := s.store.CountEmissions(ctx)
	if err != nil {
		s.serverError(w, "count emissions failed", err)
		return
	}
	numPages := NumPages(count, s.pageSize)
	page := Clamp(pathPage(r), 1, numPages)

	rows, err := s.store.ListEmissions(ctx, orderBy, s.pageSize, Offset(page, s.pageSize))
	if err != nil {
		s.serverError(w, "list emissions failed", err)
		return
	}

	msg := ""
	if deleted := r.URL.Query().Get("deleted"); deleted != "" {
		msg = fmt.Sprintf("✔ IMO %s deleted", deleted)
	}

	s.render(w, "emissions.html", emissionsPage{
		pageData: pageData{Title: "Emissions", Nav: "emissions"},
		Columns:  store.Columns,
		Rows:     rows,
		Page:     page,
		NumPages: numPages,
		OrderBy:  orderBy,
		Msg:      msg,
	})
}

type aggregationPage struct {
	pageData
	GroupColumns []string
	Rows         []store.AggregateRow
	Page         int
	NumPages     int
	OrderBy      string
}

func (s *Server) handleAggregation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderBy := orderColumn(r, aggregationColumns, "country")

	count, err := s.store.CountAggregation(ctx)
	if err != nil {
		s.serverError(w, "count aggregation failed", err)
		return
	}
	numPages := NumPages(count, s.pageSize)
	page := Clamp(pathPage(r), 1, numPages)

	rows, err := s.store.Aggregation(ctx, orderBy, s.pageSize, Offset(page, s.pageSize))
	if err != nil {
		s.serverError(w, "aggregation query failed", err)
		return
	}

	s.render(w, "aggregation.html", aggregationPage{
		pageData:     pageData{Title: "Aggregation", Nav: "aggregation"},
		GroupColumns: aggregationColumns,
		Rows:         rows,
		Page:         page,
		NumPages:     numPages,
		OrderBy:      orderBy,
	})
}

type visualPage struct {
	pageData
	CountryLabels  []string
	AvgTime        []float64
	AvgCO2         []float64
	ShipTypeLabels []string
	SumCO2         []float64
}

func (s *Server) handleVisual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	averages, err := s.store.CountryAverages(ctx)
	if err != nil {
		s.serverError(w, "country averages failed", err)
		return
	}
	totals, err := s.store.ShipTypeTotals(ctx)
	if err != nil {
		s.serverError(w, "ship type totals failed", err)
		return
	}

	data := visualPage{pageData: pageData{Title: "Visual", Nav: "visual"}}
	for _, row := range averages {
		data.CountryLabels = append(data.CountryLabels, row.Country)
		data.AvgTime = append(data.AvgTime, row.AvgTimeAtSea)
		data.AvgCO2 = append(data.AvgCO2, row.AvgCO2)
	}
	for _, row := range totals {
		data.ShipTypeLabels = append(data.ShipTypeLabels, row.ShipType)
		data.SumCO2 = append(data.SumCO2, row.SumCO2)
	}
	s.render(w, "visual.html", data)
}

type radarPage struct {
	pageData
	Labels []string
	MaxEIV []float64
	MinEIV []float64
}

func (s *Server) handleRadarChart(w http.ResponseWriter, r *http.Request) {
	ranges, err := s.store.CountryEIVRange(r.Context())
	if err != nil {
		s.serverError(w, "country eiv range failed", err)
		return
	}

	data := radarPage{pageData: pageData{Title: "Radar chart", Nav: "radar"}}
	for _, row := range ranges {
		data.Labels = append(data.Labels, row.Country)
		data.MaxEIV = append(data.MaxEIV, math.Sqrt(row.MaxEIV))
		data.MinEIV = append(data.MinEIV, math.Sqrt(row.MinEIV))
	}
	s.render(w, "radarchart.html", data)
}

type detailPage struct {
	pageData
	IsUpdate        bool
	Action          string
	Form            *forms.EmissionForm
	ShipTypeChoices []choices.Choice
	Msg             string
	Success         bool
}

func (s *Server) newDetailPage(r *http.Request, form *forms.EmissionForm, isUpdate bool) detailPage {
	action := "/emissions/new"
	if isUpdate {
		action = "/emissions/imo/" + form.IMO
	}

	shipTypes, err := s.choices.Choices(r.Context(), "ship_type")
	if err != nil {
		// The form still works without dropdown suggestions.
		s.logger.Error("ship type choices failed", "error", err)
		shipTypes = []choices.Choice{choices.Placeholder}
	}
	if form.ShipType != "" && !containsChoice(shipTypes, form.ShipType) {
		shipTypes = append(shipTypes, choices.Choice{Value: form.ShipType, Label: form.ShipType})
	}

	return detailPage{
		pageData:        pageData{Title: "Emission record", Nav: "emissions"},
		IsUpdate:        isUpdate,
		Action:          action,
		Form:            form,
		ShipTypeChoices: shipTypes,
	}
}

func containsChoice(items []choices.Choice, value string) bool {
	for _, item := range items {
		if item.Value == value {
			return true
		}
	}
	return false
}

func pathIMO(r *http.Request) (int64, bool) {
	raw := r.PathValue("imo")
	if raw == "" {
		return 0, false
	}
	imo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return imo, true
}

func (s *Server) handleDetailForm(w http.ResponseWriter, r *http.Request) {
	imo, isUpdate := pathIMO(r)
	if !isUpdate && r.PathValue("imo") != "" {
		http.NotFound(w, r)
		return
	}

	form := &forms.EmissionForm{}
	if isUpdate {
		record, err := s.store.GetEmission(r.Context(), imo)
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, "get emission failed", err)
			return
		}
		form = forms.FromRecord(record)
	}

	data := s.newDetailPage(r, form, isUpdate)
	if isUpdate && r.URL.Query().Get("inserted") == "true" {
		data.Msg = fmt.Sprintf("✔ IMO %d inserted", imo)
		data.Success = true
	}
	s.render(w, "emission_detail.html", data)
}

// handleDetailSubmit dispatches on the action form field: insert on the new
// form, update or delete on an existing record's form.
func (s *Server) handleDetailSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	imo, isUpdate := pathIMO(r)
	form := forms.Parse(r.PostForm)
	if isUpdate {
		// Disabled inputs are not submitted; the identifier comes from the
		// URL path and is never editable.
		form.IMO = strconv.FormatInt(imo, 10)
	}

	action := r.PostForm.Get("action")
	switch action {
	case "delete":
		s.handleDelete(w, r, imo, isUpdate)
	case "insert":
		if isUpdate {
			http.Error(w, "cannot insert over an existing record", http.StatusBadRequest)
			return
		}
		s.handleInsert(w, r, form)
	case "update":
		if !isUpdate {
			http.NotFound(w, r)
			return
		}
		s.handleUpdate(w, r, imo, form)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, imo int64, isUpdate bool) {
	if !isUpdate {
		http.NotFound(w, r)
		return
	}
	// Deleting an IMO that is already gone still redirects with the marker.
	if err := s.store.DeleteEmission(r.Context(), imo); err != nil {
		s.serverError(w, "delete emission failed", err)
		return
	}
	s.invalidateChoices(r)
	http.Redirect(w, r, fmt.Sprintf("/emissions?deleted=%d", imo), http.StatusSeeOther)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request, form *forms.EmissionForm) {
	if !form.Validate() {
		data := s.newDetailPage(r, form, false)
		data.Msg = "There were errors in your form"
		s.render(w, "emission_detail.html", data)
		return
	}

	record := form.Record()
	err := s.store.InsertEmission(r.Context(), record)
	switch {
	case errors.Is(err, store.ErrDuplicateIMO):
		data := s.newDetailPage(r, form, false)
		data.Msg = "IMO already exists"
		s.render(w, "emission_detail.html", data)
	case err != nil:
		s.logger.Error("insert emission failed", "imo", record.IMO, "error", err)
		data := s.newDetailPage(r, form, false)
		data.Msg = "Something went wrong, the record was not saved"
		s.render(w, "emission_detail.html", data)
	default:
		s.invalidateChoices(r)
		http.Redirect(w, r, fmt.Sprintf("/emissions/imo/%d?inserted=true", record.IMO), http.StatusSeeOther)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, imo int64, form *forms.EmissionForm) {
	if !form.Validate() {
		data := s.newDetailPage(r, form, true)
		data.Msg = "There were errors in your form"
		s.render(w, "emission_detail.html", data)
		return
	}

	if err := s.store.UpdateEmission(r.Context(), imo, form.Record()); err != nil {
		s.logger.Error("update emission failed", "imo", imo, "error", err)
		data := s.newDetailPage(r, form, true)
		data.Msg = "Something went wrong, the record was not saved"
		s.render(w, "emission_detail.html", data)
		return
	}

	s.invalidateChoices(r)
	data := s.newDetailPage(r, form, true)
	data.Msg = "✔ IMO updated successfully"
	data.Success = true
	s.render(w, "emission_detail.html", data)
}

// invalidateChoices drops the cached ship type list after a mutation so the
// dropdown picks up new values before the TTL would.
func (s *Server) invalidateChoices(r *http.Request) {
	if err := s.choices.Invalidate(r.Context(), "ship_type"); err != nil {
		s.logger.Error("invalidate choices failed", "error", err)
	}
}

func (s *Server) handleEmissionsExport(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.AllEmissions(r.Context())
	if err != nil {
		s.serverError(w, "export emissions failed", err)
		return
	}

	result, err := export.EmissionsXLSX(items)
	if err != nil {
		s.serverError(w, "build xlsx failed", err)
		return
	}
	writeAttachment(w, result)
}

func (s *Server) handleAggregationExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.store.CountAggregation(ctx)
	if err != nil {
		s.serverError(w, "count aggregation failed", err)
		return
	}
	rows, err := s.store.Aggregation(ctx, "country", count, 0)
	if err != nil {
		s.serverError(w, "aggregation query failed", err)
		return
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, "aggregation.html", aggregationPage{
		pageData:     pageData{Title: "Aggregation report", Nav: "aggregation"},
		GroupColumns: aggregationColumns,
		Rows:         rows,
		Page:         1,
		NumPages:     1,
		OrderBy:      "country",
	}); err != nil {
		s.serverError(w, "render report failed", err)
		return
	}

	result, err := export.ReportPDF(buf.String(), "aggregation-report")
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		http.Error(w, "PDF export is unavailable on this server", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.serverError(w, "build pdf failed", err)
		return
	}
	writeAttachment(w, result)
}

func writeAttachment(w http.ResponseWriter, result *export.Result) {
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	_, _ = w.Write(result.Data)
}
