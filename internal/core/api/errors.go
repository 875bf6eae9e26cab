package api

// Error mapping is done inline in handlers.
// Malformed requests and surveys map to INVALID_ARGUMENT.
// Rejected mode assignments map to INVALID_ARGUMENT.
// Unknown rule types map to NOT_FOUND.
// Scan-store failures map to UNAVAILABLE.
// Context timeouts map to DEADLINE_EXCEEDED.
