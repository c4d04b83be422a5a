package services

import (
	"errors"

	"usdataexplorer/internal/datasets"
)

// Explorer service errors
var (
	// Dataset errors
	ErrUnknownDataset = datasets.ErrUnknownDataset
	ErrUnknownColumn  = errors.New("unknown column")

	// Election errors
	ErrUnknownOffice = errors.New("unknown office")
	ErrInvalidYear   = errors.New("invalid year")
	ErrNoResults     = errors.New("no results for selection")

	// EV errors
	ErrUnknownModel = errors.New("unknown model")
)
