package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

func bookAppointmentHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		p, _ := PrincipalFrom(r.Context())
		patientID := p.ID
		if p.IsAdmin() {
			id, err := uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "patient_id is required for admin bookings"))
				return
			}
			patientID = id
		}

		// Already validated as a uuid.
		doctorID := uuid.MustParse(req.DoctorID)

		date, err := slot.ParseDate(req.Date)
		if err != nil {
			writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		start, err := slot.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, apperrors.Wrap(err, apperrors.ErrValidation, "start_time must be HH:MM"))
			return
		}

		appt, err := arb.BookAppointment(r.Context(), appointment.BookingRequest{
			PatientID: patientID,
			DoctorID:  doctorID,
			Date:      date,
			StartTime: start,
			Reason:    req.Reason,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newAppointmentResponse(*appt))
	}
}

func getAppointmentHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := loadOwnedAppointment(w, r, arb, RolePatient, RoleDoctor)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(*appt))
	}
}

func cancelAppointmentHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := loadOwnedAppointment(w, r, arb, RolePatient)
		if !ok {
			return
		}

		updated, err := arb.Cancel(r.Context(), appt.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(*updated))
	}
}

func completeAppointmentHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := loadOwnedAppointment(w, r, arb, RoleDoctor)
		if !ok {
			return
		}

		// The body is optional; an empty one means no notes.
		var req CompleteAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, err)
			return
		}

		updated, err := arb.Complete(r.Context(), appt.ID, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentResponse(*updated))
	}
}

func listPatientAppointmentsHandler(arb Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuidParam(r, "patientID")
		if err != nil {
			writeError(w, err)
			return
		}

		p, _ := PrincipalFrom(r.Context())
		if !p.IsAdmin() && !p.Is(RolePatient, patientID) {
			writeError(w, errForbidden)
			return
		}

		list, err := arb.ListByPatient(r.Context(), patientID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentList(list))
	}
}

func listDoctorAppointmentsHandler(arb Arbiter) http.HandlerFunc {
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

		list, err := arb.ListByDoctor(r.Context(), doctorID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentList(list))
	}
}

// loadOwnedAppointment fetches the {id} appointment and checks that the caller
// is an admin or its patient/doctor for one of the owner roles. It writes the
// error response itself and reports whether the handler may continue.
func loadOwnedAppointment(w http.ResponseWriter, r *http.Request, arb Arbiter, owners ...Role) (*appointment.Appointment, bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	appt, err := arb.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	p, _ := PrincipalFrom(r.Context())
	if p.IsAdmin() {
		return appt, true
	}
	for _, role := range owners {
		switch {
		case role == RolePatient && p.Is(RolePatient, appt.PatientID):
			return appt, true
		case role == RoleDoctor && p.Is(RoleDoctor, appt.DoctorID):
			return appt, true
		}
	}

	writeError(w, errForbidden)
	return nil, false
}
