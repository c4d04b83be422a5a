// Package files provides file system operations for the explorer's data and
// export directories.
//
// Discovery lists the CSV files present in the data directory and matches
// them against the file names configured for each dataset. Manager resolves
// names against the configured directories, opens source files and creates
// export files that are only moved into place once fully written.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	inventory, err := discovery.Inventory("", cfg.Datasets.Files())
//
//	manager := files.NewManager(paths, logger)
//	w, path, err := manager.CreateExport("ev-by-make.csv")
package files
