package api

import (
	"net/http"

	"github.com/rightfit/rightfit-navigation/auth"
	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/geo"
	apphttp "github.com/rightfit/rightfit-navigation/http"
	"github.com/rightfit/rightfit-navigation/navigation"
	"github.com/rightfit/rightfit-navigation/validation"
	"github.com/rightfit/rightfit-navigation/weather"
)

// MyLocations handles GET /workers/{workerID}/locations?lat=&lon=. Workers
// may only list their own locations; managers and admins any worker's in
// their tenant.
func (h *Handler) MyLocations(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := auth.GetClaims(r.Context())
	if claims == nil || !claims.CanActFor(workerID) {
		h.audit.LogAccessDenied(r.Context(), tenant(r), auth.UserID(r.Context()), "worker", workerID)
		writeError(w, r, apperrors.Forbidden("cannot view another worker's locations"))
		return
	}

	user, ok, err := validation.QueryPoint(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var userPtr *geo.Point
	if ok {
		userPtr = &user
	}

	views, err := h.navigator.MyLocations(r.Context(), claims.TenantID, workerID, userPtr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apphttp.OK(w, views)
}

// Navigation handles GET /properties/{propertyID}/navigation. Traffic and
// weather are included unless traffic=false or weather=false.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := validation.RequireQueryPoint(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var opts navigation.Options
	if opts.IncludeTraffic, err = queryFlag(r, "traffic", true); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.IncludeWeather, err = queryFlag(r, "weather", true); err != nil {
		writeError(w, r, err)
		return
	}

	data, err := h.navigator.NavigationData(r.Context(), tenant(r), propertyID, user, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apphttp.OK(w, data)
}

// Weather handles GET /weather?lat=&lon=.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	p, err := validation.RequireQueryPoint(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.weather == nil {
		writeError(w, r, apperrors.WeatherUnavailable(""))
		return
	}

	snap, err := h.weather.Current(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apphttp.OK(w, navigation.WeatherReport{
		Current:        *snap,
		Recommendation: weather.Recommend(*snap),
	})
}
