// Package main runs the zkpass gateway: the server side that holds the proving
// API key and the sponsor key so that clients never see either.
//
// HTTP API
//
//	POST /api/zkp
//	    Body: { jwt, ephemeralPublicKey, maxEpoch, randomness, network }.
//	    Forwards to the proving service and returns the proof artifacts.
//	    400 on malformed input, 502 when the prover fails.
//
//	POST /api/sponsor
//	    Body: { transactionBlockKindBytes, sender }.
//	    Wraps the transaction kind with the sponsor's gas and returns
//	    { bytes, signature }. 403 for calls outside the package allowlist,
//	    503 once the total budget is spent, 502 on ledger errors.
//
//	GET /healthz
//	    Liveness probe.
//
//	GET /metrics
//	    Prometheus metrics.
//
// Behaviour
//
//   - Configuration comes from defaults, an optional --config file and
//     ZKPASS_GATEWAY_* environment variables.
//   - Every request is bounded by request_timeout.
//   - A lightweight access log records method, path, status and duration.
//   - The default listen address is :8080.
package main
