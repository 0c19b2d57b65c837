// Package server assembles and runs the irrigation server process.
//
// It loads the configuration, opens the settings store and the output lines,
// builds the controller, connects the optional MQTT and NATS event sinks and
// serves the HTTP and gRPC surfaces next to the control loop until the context
// is canceled.
package server
