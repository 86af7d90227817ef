/*
Package http exposes a rewind Engine and its trajectories as a JSON API on chi.

	POST   /trajectories                 create (optional {"id": ...})
	GET    /trajectories                 list ids
	GET    /trajectories/{id}            fetch
	DELETE /trajectories/{id}            delete
	POST   /trajectories/{id}/steps      apply one action
	GET    /trajectories/{id}/readiness  run the report gates without stepping
	GET    /trajectories/{id}/events     server-sent step diffs
	GET    /rollback/{node}?policy=      preview a rollback
	GET    /graph                        mermaid flowchart (?format=json, ?trajectory=id)
	GET    /check                        coherence report
	GET    /schemas/action               the action JSON Schema
	GET    /metrics                      Prometheus metrics, when mounted
*/
package http
