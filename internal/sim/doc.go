// Package sim drives a gravitational N-body simulation one discrete step
// at a time.
//
// Every step runs three strictly ordered phases:
//
//   - force: every body's accumulator is reset and refilled from the
//     current index, in parallel and read-only
//   - integrate: every body is advanced by its own timescale, in parallel
//   - rebuild: every body is inserted, by a single writer, into a fresh
//     index over the same cube, which then becomes current
//
// Bodies leaving the cube during rebuild are handled by the configured
// [EscapePolicy]. Bodies that fall into the same depth-capped leaf are
// fused by the index and reported in [StepReport].
//
// # Example
//
//	s, err := sim.New(sim.DefaultConfig(), sim.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	s.AddMetric(metrics.NewEnergyDrift())
//	result, err := s.Run(ctx, bodies, cube)
//
// # Thread Safety
//
// A Simulator is not safe for concurrent runs. Use [Ensemble] to run
// independent simulations side by side.
package sim
