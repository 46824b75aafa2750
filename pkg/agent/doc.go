// Package agent builds configured LLM agents and drives streamed runs
// against them.
//
// The Builder validates an AgentConfig, resolves the provider from the model
// identifier, checks credentials, and binds the capability tools. The Runner
// executes one turn at a time: it forwards text deltas in provider order,
// polls the CancelSignal between chunks for cooperative cancellation, and
// finalizes every run into a telemetry RunRecord with token usage, latency
// and estimated cost.
//
// Cancellation and provider failures both produce a well-formed RunResult
// with the partial text preserved; only provider failures additionally
// surface an ExecutionError.
package agent
