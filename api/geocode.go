package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	apphttp "github.com/rightfit/rightfit-navigation/http"
	"github.com/rightfit/rightfit-navigation/validation"
)

// GeocodeRequest is the optional body of a property geocode. An empty
// address geocodes the stored address.
type GeocodeRequest struct {
	Address      string `json:"address" validate:"max=500"`
	ForceRefresh bool   `json:"force_refresh"`
}

// PlusCodeResponse is a decoded plus code.
type PlusCodeResponse struct {
	PlusCode  string  `json:"plus_code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	H3Cell    string  `json:"h3_cell"`
}

// DistanceRequest asks for the straight-line distance between two points.
type DistanceRequest struct {
	Origin      *geo.Point `json:"origin" validate:"required"`
	Destination *geo.Point `json:"destination" validate:"required"`
}

// DistanceResponse is a distance with its driving estimate.
type DistanceResponse struct {
	Distance   geo.DistanceResult `json:"distance"`
	ETAMinutes int                `json:"eta_minutes"`
}

// GeocodeProperty handles POST /properties/{propertyID}/geocode.
func (h *Handler) GeocodeProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req GeocodeRequest
	if r.ContentLength != 0 {
		if !validation.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	loc, err := h.geocoder.Resolve(r.Context(), tenant(r), propertyID, req.Address, req.ForceRefresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apphttp.OK(w, loc)
}

// ReverseGeocode handles GET /geocode/reverse?lat=&lon=.
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	p, err := validation.RequireQueryPoint(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	addr, err := h.geocoder.Reverse(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apphttp.OK(w, addr)
}

// DecodePlusCode handles GET /plus-codes/{code}.
func (h *Handler) DecodePlusCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	p, err := geo.DecodePlusCode(code)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidPlusCode) {
			err = apperrors.Wrap(err, apperrors.CodeInvalidPlusCode, err.Error())
		}
		writeError(w, r, err)
		return
	}

	apphttp.OK(w, PlusCodeResponse{
		PlusCode:  strings.ToUpper(strings.TrimSpace(code)),
		Latitude:  p.Lat,
		Longitude: p.Lng,
		H3Cell:    geo.CellForPoint(p, geo.H3ResolutionProperty),
	})
}

// Distance handles POST /distance.
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	var req DistanceRequest
	if !validation.DecodeAndValidate(w, r, &req) {
		return
	}

	d := geo.Distance(*req.Origin, *req.Destination)
	apphttp.OK(w, DistanceResponse{
		Distance:   d,
		ETAMinutes: geo.EstimateETAMinutes(float64(d.Meters) / geo.MetersPerKm),
	})
}
