package api

import (
	"net/http"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

func setAvailabilityHandler(cal Calendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuidParam(r, "doctorID")
		if err != nil {
			writeError(w, err)
			return
		}

		p, _ := PrincipalFrom(r.Context())
		if !p.IsAdmin() && !p.Is(RoleDoctor, doctorID) {
			writeError(w, errForbidden)
			return
		}

		var req SetAvailabilityRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		start, err := slot.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "start_time must be HH:MM"))
			return
		}
		end, err := slot.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "end_time must be HH:MM"))
			return
		}

		t, err := cal.SetTemplate(r.Context(), doctorID, time.Weekday(*req.Weekday), slot.Interval{Start: start, End: end}, req.SlotDurationMinutes)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newTemplateResponse(*t))
	}
}

func listAvailabilityHandler(cal Calendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuidParam(r, "doctorID")
		if err != nil {
			writeError(w, err)
			return
		}

		templates, err := cal.ListTemplates(r.Context(), doctorID)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			resp = append(resp, newTemplateResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteAvailabilityHandler(cal Calendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}

		t, err := cal.GetTemplateByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		p, _ := PrincipalFrom(r.Context())
		if !p.IsAdmin() && !p.Is(RoleDoctor, t.DoctorID) {
			writeError(w, errForbidden)
			return
		}

		if err := cal.DeleteTemplate(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listSlotsHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuidParam(r, "doctorID")
		if err != nil {
			writeError(w, err)
			return
		}

		date, err := slot.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}

		slots, err := arb.ListAvailableSlots(r.Context(), doctorID, date)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, newSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
