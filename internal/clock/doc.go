// Package clock provides the offset-corrected software clock of the controller.
//
// The board has no trusted time source, so the system clock is corrected by a
// signed offset that remote clients set by sending their own epoch time.
package clock
