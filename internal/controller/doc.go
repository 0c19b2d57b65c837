// Package controller coordinates valves, their schedules and the operating
// mode.
//
// A single *Controller is shared by the control loop and every request
// handler. Each piece of state has its own lock (device schedule, actuator
// line, mode flag, clock offset) and no operation holds two of them at once.
// Settings are persisted after the in-memory change is committed; a failed
// write is logged and counted, and the in-memory value stays authoritative.
package controller
