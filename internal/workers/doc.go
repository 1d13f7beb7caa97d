/*
Package workers sizes and bounds image rendering concurrency.

Go sets GOMAXPROCS from the container CPU limit, but runtime.NumCPU still
reports the host. [ForCPU] sizes pools from GOMAXPROCS so a 2-core pod on a
64-core node renders two images at a time, not sixty-four.

The server wraps thumbnail and preview rendering in a [Limiter]:

	limiter := workers.NewLimiter(workers.ForCPU(8))

	if err := limiter.Acquire(r.Context()); err != nil {
	    return // client went away
	}
	defer limiter.Release()

Batch tools use [Each] to fan a slice out over a fixed number of goroutines.

Set RENDER_WORKERS to override the computed count.
*/
package workers
