// Package memory sets Go's soft memory limit from the environment.
//
// Decoding a large original or a full-resolution preview allocates tens of
// megabytes at once. When the server runs under a container memory limit,
// [ConfigureFromEnv] turns MEMORY_LIMIT (for example from the Kubernetes
// Downward API) into a GOMEMLIMIT so the collector works harder before the
// process is killed:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// MEMORY_RATIO (default 0.80) sets the share of that limit given to the
// heap. An explicit GOMEMLIMIT always wins and is only reported.
package memory
