package base

import (
	"github.com/VictoriaMetrics/metrics"
)

// transport metrics, exposed with metrics.WritePrometheus
var (
	requestsSent           = metrics.NewCounter(`dmux_transport_requests_sent_total`)
	connectionRequestsSent = metrics.NewCounter(`dmux_transport_connection_requests_sent_total`)
	responsesDispatched    = metrics.NewCounter(`dmux_transport_responses_dispatched_total`)
	unmatchedResponses     = metrics.NewCounter(`dmux_transport_unmatched_responses_total`)
	malformedFrames        = metrics.NewCounter(`dmux_transport_malformed_frames_total`)
	writeFailures          = metrics.NewCounter(`dmux_transport_write_failures_total`)
	idCollisions           = metrics.NewCounter(`dmux_transport_callback_id_collisions_total`)
	channelsClosed         = metrics.NewCounter(`dmux_transport_channels_closed_total`)
	requestDuration        = metrics.NewHistogram(`dmux_transport_request_duration_seconds`)
)
