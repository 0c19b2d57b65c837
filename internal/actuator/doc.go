// Package actuator drives one physical output line per valve.
//
// An Actuator is edge-triggered: Apply writes to the line only when the
// requested state differs from what the line reads back, so repeated
// evaluations of the same schedule cost no hardware writes and produce no
// event noise. Write failures are logged and swallowed; the next evaluation
// retries implicitly because the line still reads the old value.
package actuator
