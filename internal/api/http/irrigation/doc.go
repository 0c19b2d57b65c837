// Package irrigation exposes the controller over HTTP.
//
// Two route sets share one controller. The legacy routes (/get_info,
// /toggle/{name}, /update_aspersor/{name}, /set_time) keep the paths, GET
// methods and JSON bodies that existing phone and browser clients use. The
// /api/v1 routes offer the same operations with conventional methods and
// status codes. Numeric query parameters are parse-or-default: anything that
// is not a valid number reads as zero.
package irrigation
