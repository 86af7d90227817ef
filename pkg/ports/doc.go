/*
Package ports defines the driven ports (interfaces) the rewind session layer depends on.

These interfaces decouple trajectory ownership from where trajectories live, so the same
session manager runs over memory, the filesystem or Redis.

# Key Interfaces

  - TrajectoryStore: persists and loads trajectories by id.
  - DistributedLocker: serializes steps on one trajectory across processes.
*/
package ports
