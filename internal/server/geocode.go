package server

import (
	"net/http"
	"strconv"

	"civicsnap/internal/geocode"
	"civicsnap/pkg/types"
)

func (s *Service) handleGetReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		s.writeError(w, types.NewValidationError("lat", "lat must be a number"))
		return
	}

	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		s.writeError(w, types.NewValidationError("lng", "lng must be a number"))
		return
	}

	if err := geocode.CheckCoordinates(lat, lng); err != nil {
		s.writeError(w, err)
		return
	}

	if s.geocoder == nil {
		s.writeJSON(w, http.StatusOK, &types.GeocodeResponse{Location: geocode.Coordinates(lat, lng)})
		return
	}

	location, err := s.geocoder.Reverse(r.Context(), lat, lng)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, &types.GeocodeResponse{Location: location})
}
