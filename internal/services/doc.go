// Package services holds the business logic between the HTTP handlers and
// the dataprocessing and exporter packages.
//
// # Services
//
//	- DatasetCache keeps typed canonical tables in memory, keyed by file
//	  path, size and modification time.
//	- DataService answers dashboard queries (overview, filter options,
//	  summary, market, country and funding rankings) over a cached table.
//	- PipelineService runs load, normalize and write for raw datasets and
//	  records pipeline metrics.
//	- HealthService reports liveness, readiness and build information.
//
// # Errors
//
// A missing canonical file surfaces as an errors.AppError of type NOT_FOUND
// wrapping ErrDatasetNotFound; handlers map it to a DATASET_NOT_FOUND
// problem. Queries needing a column the dataset lacks return an INPUT error
// wrapping dataprocessing.ErrMissingColumn.
//
// # Usage
//
//	cache, err := services.NewDatasetCache(cfg.Cache, loader, metrics, logger)
//	if err != nil {
//	    return err
//	}
//	data := services.NewDataService(cache, paths.DatasetCSV, logger)
//	top, err := data.TopMarkets(ctx, services.Query{Limit: 5}, services.MetricSum)
package services
