// Package services implements the business logic layer of the explorer.
// It sits between the HTTP handlers and the dataset cache: handlers parse
// and validate parameters, services fetch parsed records and run the view
// builders of the election, ev and border packages over them.
//
// # Available Services
//
//	- ExplorerService: dataset status, election / EV / border views,
//	  ad-hoc aggregation and export tables
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return sentinel errors (ErrUnknownDataset, ErrUnknownOffice,
// ErrNoResults, ...) wrapped with %w so handlers can map them with
// errors.Is, and AppErrors from the errors package for validation and
// dataset fetch failures.
//
// # Testing
//
// ExplorerService depends on the DatasetStore interface, so tests can run
// it over an in-memory store or a testify mock:
//
//	store := new(MockDatasetStore)
//	store.On("Get", mock.Anything, "ev").Return(dataset, nil)
//	svc := NewExplorerService(store, cfg.Aggregation, logger, nil)
package services
