package http

import (
	"errors"
	"net/http"

	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/services"
)

// mapServiceError converts service sentinels to API errors. AppErrors and
// context errors pass through; the error handler maps them itself.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownDataset):
		return apierrors.DatasetNotFoundError(err.Error())
	case errors.Is(err, services.ErrUnknownOffice):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeNotFound, "Office not found", err.Error())
	case errors.Is(err, services.ErrUnknownModel):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeNotFound, "Vehicle model not found", err.Error())
	case errors.Is(err, services.ErrNoResults):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeNotFound, "No results", err.Error())
	case errors.Is(err, services.ErrInvalidYear):
		return apierrors.ErrValidation("year", err.Error())
	case errors.Is(err, services.ErrUnknownColumn):
		return apierrors.UnknownColumnError(err.Error())
	}
	return err
}
