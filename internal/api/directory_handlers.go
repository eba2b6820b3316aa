package api

import (
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

func createDoctorHandler(dir clinic.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		d, err := dir.SaveDoctor(r.Context(), clinic.Doctor{Name: req.Name, Specialty: req.Specialty})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func getDoctorHandler(dir clinic.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "doctorID")
		if err != nil {
			writeError(w, err)
			return
		}

		d, err := dir.FindDoctor(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func deleteDoctorHandler(dir clinic.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "doctorID")
		if err != nil {
			writeError(w, err)
			return
		}

		if err := dir.DeleteDoctor(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createPatientHandler(dir clinic.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		p, err := dir.SavePatient(r.Context(), clinic.Patient{Name: req.Name, Email: req.Email})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func getPatientHandler(dir clinic.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "patientID")
		if err != nil {
			writeError(w, err)
			return
		}

		caller, _ := PrincipalFrom(r.Context())
		if !caller.IsAdmin() && !caller.Is(RolePatient, id) {
			writeError(w, errForbidden)
			return
		}

		p, err := dir.FindPatient(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
